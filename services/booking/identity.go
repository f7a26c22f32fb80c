package booking

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/kishan2613/Sarthi/apperror"
	"github.com/kishan2613/Sarthi/models"
)

// IdentityProtector turns the submitted user block into the stored snapshot.
// The Aadhaar number never reaches the store in clear text.
type IdentityProtector struct {
	Cost int
}

func (p IdentityProtector) cost() int {
	if p.Cost < bcrypt.MinCost || p.Cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return p.Cost
}

func (p IdentityProtector) Snapshot(in models.PilgrimInput) (models.Pilgrim, error) {
	digits, ok := models.NormalizeAadhaar(in.AadhaarNumber)
	if !ok {
		return models.Pilgrim{}, apperror.Validation("user.aadhaarNumber must contain 12 digits")
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(digits), p.cost())
	if err != nil {
		return models.Pilgrim{}, apperror.Wrap(err, apperror.CodeInternal, "could not protect identity number")
	}
	return models.Pilgrim{
		FullName:      strings.TrimSpace(in.FullName),
		Phone:         strings.TrimSpace(in.Phone),
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		AadhaarLast4:  digits[len(digits)-4:],
		AadhaarDigest: string(digest),
	}, nil
}
