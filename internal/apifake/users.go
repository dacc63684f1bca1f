package apifake

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type user struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DateJoined   time.Time `json:"-"`
}

type publicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (u *user) public() *publicUser {
	return &publicUser{ID: u.ID, Username: u.Username}
}

func hashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
