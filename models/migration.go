package models

import (
	"log"

	"bitbucket.org/barakasoft/wholesale_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Business{}, &Party{}, &Staff{},
		&Product{}, &BankAccount{}, &CashFlow{}, &BankMovement{},
		&SalesOrder{}, &SalesOrderItem{}, &SalesOrderReceipt{},
		&SalesInvoice{}, &SalesInvoiceItem{}, &SalesInvoiceReceipt{},
		&SalesReturn{}, &SalesReturnItem{}, &SalesReturnRefund{},
		&PurchaseOrder{}, &PurchaseOrderItem{}, &PurchaseOrderPayment{},
		&PurchaseReturn{}, &PurchaseReturnItem{}, &PurchaseReturnRefund{},
		&Payment{}, &Expense{},
		&BusinessSummary{}, &SummaryStats{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
