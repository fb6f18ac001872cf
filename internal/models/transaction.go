package models

import "time"

// Transaction is a single observed purchase event from the uploaded log.
type Transaction struct {
	CustomerID string    `json:"customer_id"`
	Date       time.Time `json:"date"`
}

// CustomerSummary aggregates one customer's purchase history relative to
// the dataset-wide observation cutoff. Recency and T are measured in days.
type CustomerSummary struct {
	CustomerID string  `json:"customer_id"`
	Frequency  int     `json:"frequency"`
	Recency    float64 `json:"recency"`
	T          float64 `json:"T"`
}

// Prediction is a CustomerSummary row extended with the expected number of
// purchases over the chosen forecast horizon.
type Prediction struct {
	CustomerID            string  `json:"customer_id"`
	Frequency             int     `json:"frequency"`
	Recency               float64 `json:"recency"`
	T                     float64 `json:"T"`
	PredictedTransactions float64 `json:"predicted_transactions"`
}
