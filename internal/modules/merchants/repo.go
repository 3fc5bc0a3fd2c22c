package merchants

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("merchant account not found")

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) FindByID(ctx context.Context, id string) (MerchantAccount, error) {
	var m MerchantAccount
	err := r.db.WithContext(ctx).First(&m, "id = ? AND disabled = false", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MerchantAccount{}, ErrNotFound
		}
		return MerchantAccount{}, err
	}
	return m, nil
}

// VerifyKey checks the presented secret against the stored hash.
func (m MerchantAccount) VerifyKey(secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(m.APIKeyHash), []byte(secret)) == nil
}

// HashKey is used by provisioning tooling when issuing a key.
func HashKey(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
