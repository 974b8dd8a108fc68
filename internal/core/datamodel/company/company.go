package company

import "time"

type Company struct {
	ID                string    `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Slug              string    `gorm:"column:slug;uniqueIndex;not null"`
	Nome              string    `gorm:"column:nome;not null"`
	EmailFatturazione *string   `gorm:"column:email_fatturazione"`
	PlanID            *string   `gorm:"column:plan_id;type:uuid"`
	Dimensione        *string   `gorm:"column:dimensione"`
	Settore           *string   `gorm:"column:settore"`
	Paese             *string   `gorm:"column:paese"`
	CreatedAt         time.Time `gorm:"column:created_at;default:now()"`

	// Added by a later migration; nullable in every historical schema
	// version, so the schema helper may substitute them.
	PECEmail *string `gorm:"column:pec_email"`
	SDICode  *string `gorm:"column:sdi_code"`
}

func (Company) TableName() string {
	return "companies"
}

type Plan struct {
	ID            string    `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Nome          string    `gorm:"column:nome;uniqueIndex;not null"`
	PrezzoMensile float64   `gorm:"column:prezzo_mensile;default:0"`
	MaxUtenti     int       `gorm:"column:max_utenti;default:5"`
	CreatedAt     time.Time `gorm:"column:created_at;default:now()"`
}

func (Plan) TableName() string {
	return "plans"
}
