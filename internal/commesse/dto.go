package commesse

import (
	"errors"
	"fmt"
	"time"
)

type CreateCommessaDTO struct {
	Codice      string     `json:"codice"`
	Titolo      string     `json:"titolo"`
	Descrizione *string    `json:"descrizione,omitempty"`
	ClienteID   *string    `json:"cliente_id,omitempty"`
	DataInizio  *time.Time `json:"data_inizio,omitempty"`
	DataFine    *time.Time `json:"data_fine,omitempty"`
	Importo     *float64   `json:"importo,omitempty"`
	Stato       string     `json:"stato,omitempty"`
}

func (dto CreateCommessaDTO) Validate() error {
	if dto.Codice == "" {
		return errors.New("codice is required")
	}
	if dto.Titolo == "" {
		return errors.New("titolo is required")
	}
	if dto.Stato != "" && !ValidStato(dto.Stato) {
		return fmt.Errorf("stato %q is not valid", dto.Stato)
	}
	if dto.DataInizio != nil && dto.DataFine != nil && dto.DataFine.Before(*dto.DataInizio) {
		return errors.New("data_fine cannot precede data_inizio")
	}
	return nil
}

type UpdateCommessaDTO struct {
	Titolo      *string    `json:"titolo,omitempty"`
	Descrizione *string    `json:"descrizione,omitempty"`
	ClienteID   *string    `json:"cliente_id,omitempty"`
	DataInizio  *time.Time `json:"data_inizio,omitempty"`
	DataFine    *time.Time `json:"data_fine,omitempty"`
	Importo     *float64   `json:"importo,omitempty"`
	Stato       *string    `json:"stato,omitempty"`

	// CompanyID is accepted in the payload for backward compatibility with
	// old clients but is always discarded: a row's tenant is immutable.
	CompanyID *string `json:"company_id,omitempty"`
}

func (dto UpdateCommessaDTO) Validate() error {
	if dto.Stato != nil && !ValidStato(*dto.Stato) {
		return fmt.Errorf("stato %q is not valid", *dto.Stato)
	}
	return nil
}

type ListQuery struct {
	Stato     string
	ClienteID string
	OrderBy   string
	Limit     int
	Offset    int
}
