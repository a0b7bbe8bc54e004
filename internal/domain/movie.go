package domain

type Movie struct {
	ID       int
	Title    string
	Duration int // minutes
}
