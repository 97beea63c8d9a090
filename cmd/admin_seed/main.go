package main

import (
	"log"
	"os"

	"github.com/mourinha112/zucropay-sub000/internal/config"
	"github.com/mourinha112/zucropay-sub000/internal/models"
	"github.com/mourinha112/zucropay-sub000/internal/repositories"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	config.LoadEnv()

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set in environment")
	}

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if sqlDB, err := repositories.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	var existing models.Merchant
	if err := repositories.DB.Where("email = ?", adminEmail).First(&existing).Error; err == nil {
		log.Println("Admin account already exists")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	admin := models.Merchant{
		Email:         adminEmail,
		Password:      string(hashedPassword),
		Name:          "Platform Admin",
		Status:        models.MerchantStatusActive,
		Role:          models.RoleAdmin,
		WebhookSecret: uuid.NewString(),
	}
	if err := repositories.DB.Create(&admin).Error; err != nil {
		log.Fatal("Failed to create admin account:", err)
	}

	log.Printf("Admin account created: %s (id %d)", admin.Email, admin.ID)
}
