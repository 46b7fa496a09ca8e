package models

import "github.com/google/uuid"

// All lists every persisted model in dependency order. Used by sqlite
// auto-migration in tests and local dev.
func All() []any {
	return []any{
		&User{},
		&Size{},
		&Product{},
		&ProductImage{},
		&ProductSize{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
	}
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
