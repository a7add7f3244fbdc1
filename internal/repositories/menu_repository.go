package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"restaurant_pos_backend/internal/models"
)

// MenuRepository is the read side of the menu catalog. Dish authoring (names,
// prices, availability) is owned by the menu management system; this backend
// only resolves dishes when lines are added and recipes are authored.
type MenuRepository interface {
	GetDishByID(dishID int64) (*models.MenuItem, error)
	GetDishes(page, pageSize int) ([]models.MenuItem, int, error)
}

type menuRepository struct {
	db *sql.DB
}

// NewMenuRepository creates a new instance of MenuRepository.
func NewMenuRepository(db *sql.DB) MenuRepository {
	return &menuRepository{db: db}
}

func (r *menuRepository) GetDishByID(dishID int64) (*models.MenuItem, error) {
	dish := &models.MenuItem{}
	query := `SELECT id, name, category, price, available, created_at, updated_at
	          FROM menu_items WHERE id = $1`
	err := r.db.QueryRow(query, dishID).Scan(
		&dish.ID, &dish.Name, &dish.Category, &dish.Price, &dish.Available,
		&dish.CreatedAt, &dish.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting menu item %d: %v", ErrDatabaseError, dishID, err)
	}
	return dish, nil
}

func (r *menuRepository) GetDishes(page, pageSize int) ([]models.MenuItem, int, error) {
	dishes := []models.MenuItem{}
	totalCount := 0

	query := `SELECT id, name, category, price, available, created_at, updated_at,
	                 COUNT(*) OVER() AS total_count
	          FROM menu_items ORDER BY category, name LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting menu items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var dish models.MenuItem
		if err := rows.Scan(
			&dish.ID, &dish.Name, &dish.Category, &dish.Price, &dish.Available,
			&dish.CreatedAt, &dish.UpdatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning menu item: %v", ErrDatabaseError, err)
		}
		dishes = append(dishes, dish)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating menu items: %v", ErrDatabaseError, err)
	}
	return dishes, totalCount, nil
}
