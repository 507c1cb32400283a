package db

import (
	"fmt"

	"github.com/jinzhu/gorm"
)

// InTx roda fn numa transação. Erro (ou panic) em fn faz rollback.
// Dentro de fn use somente tx: o sqlite de teste tem uma conexão só.
func InTx(db *gorm.DB, fn func(tx *gorm.DB) error) (err error) {
	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin: %w", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err = fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err = tx.Commit().Error; err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
