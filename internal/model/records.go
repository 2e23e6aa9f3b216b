package model

import "time"

type RunSummary struct {
	Timestamp     time.Time
	Combination   Combination
	NumRounds     int32
	Status        string
	FinalAccuracy *float64
	FinalLoss     *float64
	Error         *string
	LogFile       string
}

type RoundResult struct {
	Combination Combination
	Round       int
	Accuracy    *float64
	Loss        *float64
}

// ClientClasses is one "Client N has classes: [...] (counts={...})" line. Classes
// and Counts keep the raw text printed by the client.
type ClientClasses struct {
	Combination Combination
	ClientId    int
	Classes     string
	Counts      string
}
