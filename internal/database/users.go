package database

import (
	"context"
	"fmt"

	"shareit/internal/domain"
	"shareit/internal/models"
)

const userColumns = `id, name, email`

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	id, err := db.insertReturningID(ctx,
		`INSERT INTO users (name, email) VALUES (?, ?) RETURNING id`,
		user.Name, user.Email,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflictError("user with email %s already exists", user.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = id
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := db.GetContext(ctx, &user, db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NewNotFoundError("user with id %d not found", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (db *DB) UpdateUser(ctx context.Context, user *models.User) error {
	changed, err := db.execAffecting(ctx,
		`UPDATE users SET name = ?, email = ? WHERE id = ?`,
		user.Name, user.Email, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflictError("user with email %s already exists", user.Email)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if !changed {
		return domain.NewNotFoundError("user with id %d not found", user.ID)
	}
	return nil
}

func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	changed, err := db.execAffecting(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !changed {
		return domain.NewNotFoundError("user with id %d not found", id)
	}
	return nil
}
