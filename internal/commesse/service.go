package commesse

import (
	"context"

	"github.com/operativa/gestionale/internal"
	"github.com/operativa/gestionale/internal/identity"
	"github.com/operativa/gestionale/internal/tenant"
)

const table = "commesse"

// FacadeAPI is the slice of the tenant facade this vertical uses. The
// facade arrives per request; the service itself is stateless.
type FacadeAPI interface {
	Get(ctx context.Context, table, id string) (map[string]any, error)
	FindMany(ctx context.Context, table string, opts tenant.FindOptions) ([]map[string]any, error)
	Insert(ctx context.Context, table string, data map[string]any) (string, error)
	Update(ctx context.Context, table, id string, data map[string]any) (map[string]any, error)
	Delete(ctx context.Context, table, id string) (bool, error)
}

type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) List(ctx context.Context, fx FacadeAPI, q ListQuery) ([]*Commessa, error) {
	where := map[string]any{}
	if q.Stato != "" {
		if !ValidStato(q.Stato) {
			return nil, internal.NewValidationError("unknown stato filter", internal.ErrCodeInvalidStato)
		}
		where["stato"] = q.Stato
	}
	if q.ClienteID != "" {
		where["cliente_id"] = q.ClienteID
	}

	rows, err := fx.FindMany(ctx, table, tenant.FindOptions{
		Where:   where,
		OrderBy: q.OrderBy,
		Desc:    true,
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
	if err != nil {
		return nil, err
	}

	out := make([]*Commessa, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, fx FacadeAPI, id string) (*Commessa, error) {
	row, err := fx.Get(ctx, table, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, internal.NewNotFoundError("commessa not found", internal.ErrCodeRecordNotFound)
	}
	return fromRow(row), nil
}

func (s *Service) Create(ctx context.Context, fx FacadeAPI, dto *CreateCommessaDTO) (*Commessa, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	data := map[string]any{
		"codice": dto.Codice,
		"titolo": dto.Titolo,
	}
	if dto.Stato != "" {
		data["stato"] = dto.Stato
	}
	setOptional(data, "descrizione", dto.Descrizione)
	setOptional(data, "cliente_id", dto.ClienteID)
	if dto.DataInizio != nil {
		data["data_inizio"] = *dto.DataInizio
	}
	if dto.DataFine != nil {
		data["data_fine"] = *dto.DataFine
	}
	if dto.Importo != nil {
		data["importo"] = *dto.Importo
	}
	if ident := identity.FromContext(ctx); ident != nil && ident.UserID != "" {
		data["created_by"] = ident.UserID
	}

	// A duplicate codice within the tenant surfaces as a conflict from the
	// database's unique constraint; concurrent inserts race there, not here.
	id, err := fx.Insert(ctx, table, data)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, fx, id)
}

func (s *Service) Update(ctx context.Context, fx FacadeAPI, id string, dto *UpdateCommessaDTO) (*Commessa, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	data := map[string]any{}
	setOptional(data, "titolo", dto.Titolo)
	setOptional(data, "descrizione", dto.Descrizione)
	setOptional(data, "cliente_id", dto.ClienteID)
	setOptional(data, "stato", dto.Stato)
	if dto.DataInizio != nil {
		data["data_inizio"] = *dto.DataInizio
	}
	if dto.DataFine != nil {
		data["data_fine"] = *dto.DataFine
	}
	if dto.Importo != nil {
		data["importo"] = *dto.Importo
	}
	if ident := identity.FromContext(ctx); ident != nil && ident.UserID != "" {
		data["updated_by"] = ident.UserID
	}

	row, err := fx.Update(ctx, table, id, data)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, internal.NewNotFoundError("commessa not found", internal.ErrCodeRecordNotFound)
	}
	return fromRow(row), nil
}

func (s *Service) Delete(ctx context.Context, fx FacadeAPI, id string) error {
	removed, err := fx.Delete(ctx, table, id)
	if err != nil {
		return err
	}
	if !removed {
		return internal.NewNotFoundError("commessa not found", internal.ErrCodeRecordNotFound)
	}
	return nil
}

func setOptional(data map[string]any, col string, v *string) {
	if v != nil {
		data[col] = *v
	}
}
