package models

// All lists every persisted model; tests AutoMigrate these on sqlite.
func All() []any {
	return []any{
		&Business{},
		&User{},
		&Client{},
		&Job{},
		&JobUser{},
		&Part{},
		&Order{},
		&OrderItem{},
		&OrderHistory{},
		&CartItem{},
		&Favorite{},
		&Notification{},
		&TradieInvitation{},
	}
}
