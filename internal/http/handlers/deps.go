package handlers

import (
	"github.com/jmoiron/sqlx"

	"tallybot/internal/repos"
	"tallybot/internal/services"
)

type Deps struct {
	Commands *CommandHandler
	Export   *ExportHandler
	Auth     *services.AuthService
}

func NewDeps(db *sqlx.DB, auth *services.AuthService) *Deps {
	ledgerRepo := repos.NewLedgerRepo(db)

	ledgerSvc := services.NewLedgerService(ledgerRepo)
	captureSvc := services.NewCaptureService(ledgerSvc)
	analyticsSvc := services.NewAnalyticsService(ledgerRepo)
	registry := services.NewSessionRegistry()

	return &Deps{
		Commands: &CommandHandler{
			Auth:    &AuthHandler{Auth: auth},
			AuthSvc: auth,
			Capture: &CaptureHandler{Capture: captureSvc, Sessions: registry},
			Reports: &ReportHandler{Analytics: analyticsSvc, Ledger: ledgerSvc},
		},
		Export: &ExportHandler{Ledger: ledgerSvc},
		Auth:   auth,
	}
}
