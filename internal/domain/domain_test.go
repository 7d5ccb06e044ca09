package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	user, err := NewUser("john_doe", "john@example.com", "SecurePass1", Profile{FirstName: "John", LastName: "Doe"})
	require.NoError(t, err)

	assert.Equal(t, "john_doe", user.Username)
	assert.Equal(t, "John Doe", user.FullName())
	assert.True(t, user.IsActive)
	assert.False(t, user.IsAdmin)
	assert.Nil(t, user.LastLogin)
	assert.True(t, user.CheckPassword("SecurePass1"))
	assert.False(t, user.CheckPassword("SecurePass2"))

	salt, hashed, ok := strings.Cut(user.passwordHash, ":")
	require.True(t, ok)
	assert.Len(t, salt, 32)
	assert.Len(t, hashed, 64)
}

func TestNewUser_InvalidEmail(t *testing.T) {
	_, err := NewUser("john", "not-an-email", "SecurePass1", Profile{})
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestNewUser_WeakPassword(t *testing.T) {
	_, err := NewUser("john", "john@example.com", "weak", Profile{})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestUser_FullNameTrimsMissingParts(t *testing.T) {
	u := &User{FirstName: "Ada"}
	assert.Equal(t, "Ada", u.FullName())
	assert.Equal(t, "", (&User{}).FullName())
}

func TestUser_CheckPasswordWithoutHash(t *testing.T) {
	u := &User{Username: "ghost"}
	assert.False(t, u.HasPassword())
	assert.False(t, u.CheckPassword(""))
}

func TestUser_SetPasswordSaltsEveryHash(t *testing.T) {
	u := &User{}
	require.NoError(t, u.SetPassword("Secure1Pass"))
	first := u.passwordHash
	require.NoError(t, u.SetPassword("Secure1Pass"))

	assert.NotEqual(t, first, u.passwordHash)
	assert.True(t, u.CheckPassword("Secure1Pass"))
}

func TestUser_SetPasswordRejectsWeakAndKeepsOld(t *testing.T) {
	u := &User{}
	require.NoError(t, u.SetPassword("Secure1Pass"))
	assert.ErrorIs(t, u.SetPassword("short"), ErrWeakPassword)
	assert.True(t, u.CheckPassword("Secure1Pass"))
}

func TestUser_BcryptScheme(t *testing.T) {
	user, err := NewUserWithScheme("jane", "jane@example.com", "Secure1Pass", Profile{}, SchemeBcrypt)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(user.passwordHash, "$2"))
	assert.True(t, user.CheckPassword("Secure1Pass"))
	assert.False(t, user.CheckPassword("Secure1Pasz"))
}

func TestParsePasswordScheme(t *testing.T) {
	s, err := ParsePasswordScheme("")
	require.NoError(t, err)
	assert.Equal(t, SchemeSHA256, s)

	s, err = ParsePasswordScheme(" BCRYPT ")
	require.NoError(t, err)
	assert.Equal(t, SchemeBcrypt, s)

	_, err = ParsePasswordScheme("md5")
	assert.ErrorIs(t, err, ErrUnknownScheme)
}

func TestVerifyPassword_Malformed(t *testing.T) {
	assert.False(t, VerifyPassword("nocolon", "x"))
}

func TestUser_Addresses(t *testing.T) {
	u := &User{}
	require.NoError(t, u.AddAddress(Address{Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701"}))
	require.NoError(t, u.AddAddress(Address{Street: "10 Rue", City: "Paris", State: "IDF", ZipCode: "75001", Country: "FR"}))

	err := u.AddAddress(Address{Street: "x", City: "y", State: "z", ZipCode: "abc", Country: "IN"})
	assert.ErrorIs(t, err, ErrInvalidZipCode)

	addrs := u.Addresses()
	require.Len(t, addrs, 2)
	assert.Equal(t, "US", addrs[0].Country)
	assert.Equal(t, "1 Main St, Springfield, IL 62701, US", addrs[0].String())

	addrs[0].City = "Changed"
	assert.Equal(t, "Springfield", u.Addresses()[0].City, "returned slice is a copy")
}

func TestUser_MarkLogin(t *testing.T) {
	u := &User{}
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	u.MarkLogin(now)
	require.NotNil(t, u.LastLogin)
	assert.Equal(t, now, *u.LastLogin)
}

func TestProduct_TotalStock(t *testing.T) {
	p := NewProduct("Running Shoes", decimal.RequireFromString("89.99"), CategoryClothing, "")
	assert.Equal(t, UnlimitedStock, p.TotalStock())

	p.AddVariant(ProductVariant{SKU: "SHOE-BLK-42", Color: "Black", Size: "42", Stock: 10})
	p.AddVariant(ProductVariant{SKU: "SHOE-WHT-43", Color: "White", Size: "43", Stock: 5})
	assert.Equal(t, 15, p.TotalStock())
}

func TestProduct_ID(t *testing.T) {
	p := NewProduct("Gaming Laptop", decimal.RequireFromString("1299.99"), CategoryElectronics, "fast")
	assert.Regexp(t, `^ELE-[0-9A-F]{6}$`, p.ProductID)
	assert.True(t, p.IsAvailable)
	assert.Equal(t, "$1,299.99", p.FormattedPrice())

	explicit := &Product{ProductID: "CUSTOM-1", Name: "x", Category: CategoryOther}
	explicit.EnsureID()
	assert.Equal(t, "CUSTOM-1", explicit.ProductID)
}

func TestProduct_VariantBySKU(t *testing.T) {
	p := NewProduct("Shirt", decimal.NewFromInt(20), CategoryClothing, "")
	p.AddVariant(ProductVariant{SKU: "S-1", Stock: 3})

	v, ok := p.VariantBySKU("S-1")
	require.True(t, ok)
	assert.Equal(t, 3, v.Stock)

	_, ok = p.VariantBySKU("missing")
	assert.False(t, ok)
}

func TestProduct_ApplyDiscount(t *testing.T) {
	p := NewProduct("Python Cookbook", decimal.RequireFromString("39.99"), CategoryBooks, "")

	got, err := p.ApplyDiscount(decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("35.99").Equal(got), got.String())
	assert.True(t, decimal.RequireFromString("39.99").Equal(p.BasePrice))

	for _, bad := range []int64{0, 100, -5, 150} {
		_, err := p.ApplyDiscount(decimal.NewFromInt(bad))
		assert.ErrorIs(t, err, ErrInvalidDiscount)
	}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("FOOD")
	require.NoError(t, err)
	assert.Equal(t, CategoryFood, c)

	_, err = ParseCategory("toys")
	assert.Error(t, err)
}

func TestTransaction_Transitions(t *testing.T) {
	tests := []struct {
		from PaymentStatus
		to   PaymentStatus
		ok   bool
	}{
		{PaymentStatusPending, PaymentStatusSuccess, true},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusSuccess, PaymentStatusRefunded, true},
		{PaymentStatusRefunded, PaymentStatusRefunded, false},
		{PaymentStatusFailed, PaymentStatusRefunded, false},
		{PaymentStatusPending, PaymentStatusRefunded, false},
		{PaymentStatusSuccess, PaymentStatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			tx := &Transaction{Status: tt.from}
			err := tx.Transition(tt.to, time.Now())
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, tx.Status)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tt.from, tx.Status)
		})
	}
}

func TestTransaction_RefundSetsTimestamp(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	tx := &Transaction{Status: PaymentStatusSuccess}
	require.NoError(t, tx.Transition(PaymentStatusRefunded, at))
	require.NotNil(t, tx.RefundedAt)
	assert.Equal(t, at, *tx.RefundedAt)
}

func TestMaskCard(t *testing.T) {
	assert.Equal(t, "****-****-****-0366", MaskCard("4532015112830366"))
	assert.Equal(t, "****-****-****-12", MaskCard("12"))
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	s := Session{Username: "a", ExpiresAt: now.Add(time.Minute)}
	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(2*time.Minute)))
}

func TestSession_TTL(t *testing.T) {
	issued := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	s := Session{Username: "a", IssuedAt: issued, ExpiresAt: issued.Add(SessionTTL)}
	assert.Equal(t, SessionTTL, s.TTL())

	legacy := Session{Username: "a", ExpiresAt: time.Now().Add(time.Hour)}
	assert.InDelta(t, float64(time.Hour), float64(legacy.TTL()), float64(time.Minute))
}

func TestTransaction_FormattedAmount(t *testing.T) {
	tx := &Transaction{Amount: decimal.RequireFromString("149.99"), Currency: "USD"}
	assert.Equal(t, "$149.99", tx.FormattedAmount())
}
