// Package commesse is the job-order vertical. It consumes the core the way
// every business route package does: all data access goes through the
// request's tenant facade, never through a raw connection.
package commesse

import (
	"fmt"
	"time"
)

type Commessa struct {
	ID          string     `json:"id"`
	Codice      string     `json:"codice"`
	Titolo      string     `json:"titolo"`
	Descrizione *string    `json:"descrizione,omitempty"`
	ClienteID   *string    `json:"cliente_id,omitempty"`
	DataInizio  *time.Time `json:"data_inizio,omitempty"`
	DataFine    *time.Time `json:"data_fine,omitempty"`
	Importo     *float64   `json:"importo,omitempty"`
	Stato       string     `json:"stato"`
	CreatedBy   *string    `json:"created_by,omitempty"`
	UpdatedBy   *string    `json:"updated_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

const (
	StatoAperta  = "aperta"
	StatoInCorso = "in_corso"
	StatoSospesa = "sospesa"
	StatoChiusa  = "chiusa"
)

var validStati = map[string]struct{}{
	StatoAperta:  {},
	StatoInCorso: {},
	StatoSospesa: {},
	StatoChiusa:  {},
}

func ValidStato(stato string) bool {
	_, ok := validStati[stato]
	return ok
}

// fromRow maps a facade row into the domain shape, tolerating the driver's
// representation of numerics and timestamps.
func fromRow(row map[string]any) *Commessa {
	if row == nil {
		return nil
	}
	c := &Commessa{
		ID:          strVal(row["id"]),
		Codice:      strVal(row["codice"]),
		Titolo:      strVal(row["titolo"]),
		Descrizione: strPtr(row["descrizione"]),
		ClienteID:   strPtr(row["cliente_id"]),
		DataInizio:  timePtr(row["data_inizio"]),
		DataFine:    timePtr(row["data_fine"]),
		Importo:     floatPtr(row["importo"]),
		Stato:       strVal(row["stato"]),
		CreatedBy:   strPtr(row["created_by"]),
		UpdatedBy:   strPtr(row["updated_by"]),
	}
	if t := timePtr(row["created_at"]); t != nil {
		c.CreatedAt = *t
	}
	if t := timePtr(row["updated_at"]); t != nil {
		c.UpdatedAt = *t
	}
	return c
}

func strVal(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}

func strPtr(v any) *string {
	if v == nil {
		return nil
	}
	s := strVal(v)
	if s == "" {
		return nil
	}
	return &s
}

func timePtr(v any) *time.Time {
	if t, ok := v.(time.Time); ok {
		return &t
	}
	return nil
}

func floatPtr(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int64:
		f := float64(n)
		return &f
	case []byte:
		var f float64
		if _, err := fmt.Sscanf(string(n), "%f", &f); err == nil {
			return &f
		}
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%f", &f); err == nil {
			return &f
		}
	}
	return nil
}
