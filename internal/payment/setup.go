package payment

import (
	"log"

	"github.com/CampusTransit/CT-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "transit_pay"); err != nil {
		log.Fatal("Failed to ensure schema transit_pay: ", err)
	}

	if err := db.DB.AutoMigrate(&PendingPayment{}); err != nil {
		log.Fatal("Failed to auto-migrate tables: ", err)
	}
}
