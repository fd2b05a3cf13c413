package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"bmasia/internal/config"
	"bmasia/internal/database"
	"bmasia/internal/domain"
	"bmasia/internal/util"
	apperrors "bmasia/pkg/errors"
)

func main() {
	username := flag.String("username", "admin", "staff username")
	email := flag.String("email", "admin@bmasiamusic.com", "staff email")
	password := flag.String("password", "admin", "initial password")
	flag.Parse()

	// Load configuration
	if _, err := config.Load(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	if err := database.Init(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	db := database.GetDB()
	defer database.Close(db)

	repo := database.NewRepository(db)
	ctx := context.Background()

	// Check if admin already exists
	_, err := repo.FindUserByUsername(ctx, *username)
	if err == nil {
		fmt.Printf("User %q already exists!\n", *username)
		return
	}
	if !apperrors.IsNotFound(err) {
		log.Fatalf("Failed to look up user: %v", err)
	}

	// Create admin user
	hashedPassword, err := util.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	fullName := "System Administrator"
	adminUser := domain.User{
		Username:       strings.TrimSpace(*username),
		Email:          strings.ToLower(strings.TrimSpace(*email)),
		HashedPassword: hashedPassword,
		FullName:       &fullName,
		IsActive:       true,
		IsAdmin:        true,
		IsStaff:        true,
	}

	if err := repo.CreateUser(ctx, &adminUser); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	fmt.Println("Admin user created successfully!")
	fmt.Printf("Username: %s\n", adminUser.Username)
	if *password == "admin" {
		fmt.Println("Password: admin")
		fmt.Println("Please change the password after first login!")
	}
}
