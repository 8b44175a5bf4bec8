package enums

import "fmt"

// TransactionType describes the allowed values for the `type` column in transactions.
// The type determines the sign of the entry when deriving a balance: credit
// types add to the spendable balance, debit types subtract from it.
type TransactionType string

const (
	TransactionTypeEarn       TransactionType = "earn"
	TransactionTypeSpend      TransactionType = "spend"
	TransactionTypeExpire     TransactionType = "expire"
	TransactionTypeAdminAward TransactionType = "admin_award"
	TransactionTypeReferral   TransactionType = "referral"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeEarn,
	TransactionTypeSpend,
	TransactionTypeExpire,
	TransactionTypeAdminAward,
	TransactionTypeReferral,
}

// CreditTransactionTypes lists the types that increase a balance.
var CreditTransactionTypes = []TransactionType{
	TransactionTypeEarn,
	TransactionTypeAdminAward,
	TransactionTypeReferral,
}

// DebitTransactionTypes lists the types that decrease a balance.
var DebitTransactionTypes = []TransactionType{
	TransactionTypeSpend,
	TransactionTypeExpire,
}

// IsValid reports whether the value matches the canonical transaction type enum.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsCredit reports whether entries of this type add to the balance.
func (t TransactionType) IsCredit() bool {
	for _, candidate := range CreditTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsDebit reports whether entries of this type subtract from the balance.
func (t TransactionType) IsDebit() bool {
	return t == TransactionTypeSpend || t == TransactionTypeExpire
}

// ParseTransactionType converts the raw string to TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
