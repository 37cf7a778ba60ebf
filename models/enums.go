package models

// Side is the debit/credit marker used on ledger rows, opening balances
// and running balances. Dr means the party owes the business, Cr means
// the business owes the party.
type Side string

const (
	SideDr   Side = "Dr"
	SideCr   Side = "Cr"
	SideNone Side = ""
)

type PartyType string

const (
	PartyTypeCustomer PartyType = "CUSTOMER"
	PartyTypeVendor   PartyType = "VENDOR"
	PartyTypeBoth     PartyType = "BOTH"
)

type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "OPEN"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type PaymentDirection string

const (
	PaymentDirectionIn  PaymentDirection = "in"
	PaymentDirectionOut PaymentDirection = "out"
)

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodBank PaymentMethod = "bank"
)

// ChequeStatus is empty for non-cheque payments. Pending cheques are
// excluded from every ledger feed and balance sum until they clear.
type ChequeStatus string

const (
	ChequeStatusNone    ChequeStatus = ""
	ChequeStatusPending ChequeStatus = "pending"
	ChequeStatusCleared ChequeStatus = "cleared"
)

type ExpenseCategory string

const (
	ExpenseCategorySalary  ExpenseCategory = "SALARY"
	ExpenseCategoryFreight ExpenseCategory = "FREIGHT"
	ExpenseCategoryRent    ExpenseCategory = "RENT"
	ExpenseCategoryUtility ExpenseCategory = "UTILITY"
	ExpenseCategoryOther   ExpenseCategory = "OTHER"
)

type PaymentSource string

const (
	PaymentSourceCash PaymentSource = "cash"
	PaymentSourceBank PaymentSource = "bank"
)

type BankAccountType string

const (
	BankAccountTypeCash BankAccountType = "CASH"
	BankAccountTypeBank BankAccountType = "BANK"
)

type CashFlowType string

const (
	CashFlowTypeIn  CashFlowType = "IN"
	CashFlowTypeOut CashFlowType = "OUT"
)

type BankMovementType string

const (
	BankMovementTypeDeposit       BankMovementType = "deposit"
	BankMovementTypeWithdrawal    BankMovementType = "withdrawal"
	BankMovementTypeChequePayment BankMovementType = "cheque_payment"
)
