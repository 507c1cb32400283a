package controllers

import (
	"errors"
	"fmt"
	"strings"

	"corretor/models"
	"corretor/tools"

	"github.com/jinzhu/gorm"
)

var (
	ErrEmailTaken = errors.New("email já cadastrado")
	ErrPhoneTaken = errors.New("telefone já cadastrado")
)

// CheckUserConflict procura outro usuário (id diferente de exceptID) com o mesmo email ou telefone.
func CheckUserConflict(db *gorm.DB, email string, phone string, exceptID int64) error {
	if email != "" {
		var count int
		q := db.Model(&models.User{}).Where("LOWER(email) = ?", strings.ToLower(email))
		if exceptID > 0 {
			q = q.Where("id <> ?", exceptID)
		}
		if err := q.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
	}

	if key := tools.NormalizePhoneNumber(phone); key != "" {
		var count int
		q := db.Model(&models.User{}).Where("phone_key = ?", key)
		if exceptID > 0 {
			q = q.Where("id <> ?", exceptID)
		}
		if err := q.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrPhoneTaken
		}
	}
	return nil
}

// CreateUser grava um usuário novo com senha em bcrypt.
func CreateUser(db *gorm.DB, user models.User, bcryptCost int) (models.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Name = strings.TrimSpace(user.Name)
	user.SetPhone(user.Phone)
	if user.Role == "" {
		user.Role = models.USER_ROLE_USER
	}

	if missing := user.MissingFields(); missing != "" {
		return user, fmt.Errorf("faltando campo %s", missing)
	}
	if err := CheckUserConflict(db, user.Email, user.Phone, 0); err != nil {
		return user, err
	}

	hash, err := tools.HashPassword(user.Password, bcryptCost)
	if err != nil {
		return user, err
	}
	user.Password = hash

	if err := db.Create(&user).Error; err != nil {
		return user, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// SetUserPassword troca a senha (já validada) de um usuário.
func SetUserPassword(db *gorm.DB, userID int64, password string, bcryptCost int) error {
	hash, err := tools.HashPassword(password, bcryptCost)
	if err != nil {
		return err
	}
	res := db.Model(&models.User{}).Where("id = ?", userID).Update("password", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
