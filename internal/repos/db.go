package repos

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"minimarket/internal/domain"
)

// OpenDB opens the document database, ensures the schema and seeds the
// demo catalog and accounts. driver is "sqlite" or "postgres".
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	if driver == "" {
		driver = "sqlite"
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// one connection: SQLite serialises writers and :memory: is per-connection
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := seedProducts(db); err != nil {
		return nil, fmt.Errorf("seed products: %w", err)
	}
	if err := seedUsers(db); err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS documents(
  collection TEXT NOT NULL,
  doc_key    TEXT NOT NULL,
  body       TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  PRIMARY KEY (collection, doc_key)
);
CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(collection, created_at);
`
	_, err := db.Exec(schema)
	return err
}

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }

// seedDoc inserts a document unless the key already exists.
func seedDoc(tx *sqlx.Tx, collection, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ts := now()
	_, err = tx.Exec(tx.Rebind(`
		INSERT INTO documents(collection, doc_key, body, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(collection, doc_key) DO NOTHING
	`), collection, key, string(body), ts, ts)
	return err
}

// seedProducts is idempotent; safe to run on every start.
func seedProducts(db *sqlx.DB) error {
	products := []domain.Product{
		{ID: "prod-leche", Name: "Leche entera", Description: "Bolsa de leche entera", Category: "Lácteos", Price: 2000, Stock: 10, Image: "productos/leche.jpg", QuantityPerUnit: 1100, Unit: "ml"},
		{ID: "prod-pan", Name: "Pan tajado", Description: "Pan blanco tajado", Category: "Panadería", Price: 1500, Stock: 20, Image: "productos/pan.jpg", QuantityPerUnit: 500, Unit: "g"},
		{ID: "prod-huevos", Name: "Huevos AA", Description: "Huevo rojo AA por unidad", Category: "Lácteos", Price: 500, Stock: 60, Image: "productos/huevos.jpg", QuantityPerUnit: 1, Unit: "und"},
		{ID: "prod-arroz", Name: "Arroz", Description: "Arroz blanco", Category: "Granos", Price: 3200, Stock: 40, Image: "productos/arroz.jpg", QuantityPerUnit: 1000, Unit: "g"},
		{ID: "prod-cafe", Name: "Café molido", Description: "Café tostado y molido", Category: "Bebidas", Price: 12000, Stock: 4, Image: "productos/cafe.jpg", QuantityPerUnit: 500, Unit: "g"},
		{ID: "prod-jabon", Name: "Jabón de barra", Description: "Jabón para ropa", Category: "Aseo", Price: 3500, Stock: 0, Image: "productos/jabon.jpg", QuantityPerUnit: 300, Unit: "g"},
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	for _, p := range products {
		p.CreatedAt = ts
		if err := seedDoc(tx, CollProducts, p.ID, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// seedUsers ensures one customer and one admin exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, db.Rebind(`SELECT COUNT(*) FROM documents WHERE collection = ?`), CollUsers); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	log.Info().Msg("seed: inserting demo users")

	mk := func(id, email, name, role, raw string) (domain.User, error) {
		h, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		return domain.User{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}, err
	}
	seeds := [][5]string{
		{"u-ana", "ana@laeconomia.test", "Ana", domain.RoleCustomer, "Passw0rd!"},
		{"u-admin", "admin@laeconomia.test", "Admin", domain.RoleAdmin, "Passw0rd!"},
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, s := range seeds {
		u, err := mk(s[0], s[1], s[2], s[3], s[4])
		if err != nil {
			return err
		}
		if err := seedDoc(tx, CollUsers, u.ID, u); err != nil {
			return err
		}
	}
	return tx.Commit()
}
