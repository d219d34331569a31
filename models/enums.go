package models

import (
	"database/sql/driver"
	"fmt"
)

type UserRole string

const (
	UserRoleImporter UserRole = "importer"
	UserRoleSupplier UserRole = "supplier"
	UserRoleBroker   UserRole = "broker"
)

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleImporter, UserRoleSupplier, UserRoleBroker:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderStatusDraft            OrderStatus = "draft"
	OrderStatusQuotePending     OrderStatus = "quote_pending"
	OrderStatusQuoteApproved    OrderStatus = "quote_approved"
	OrderStatusOrderConfirmed   OrderStatus = "order_confirmed"
	OrderStatusProformaPending  OrderStatus = "proforma_pending"
	OrderStatusProformaApproved OrderStatus = "proforma_approved"
	OrderStatusPaymentPending   OrderStatus = "payment_pending"
	OrderStatusShipped          OrderStatus = "shipped"
	OrderStatusCustomsClearance OrderStatus = "customs_clearance"
	OrderStatusReleased         OrderStatus = "released"
	OrderStatusCompleted        OrderStatus = "completed"
	OrderStatusCancelled        OrderStatus = "cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusQuotePending, OrderStatusQuoteApproved, OrderStatusOrderConfirmed,
		OrderStatusProformaPending, OrderStatusProformaApproved, OrderStatusPaymentPending, OrderStatusShipped,
		OrderStatusCustomsClearance, OrderStatusReleased, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type DocumentCategory string

const (
	DocumentCategoryQuote                    DocumentCategory = "quote"
	DocumentCategoryProformaInvoice          DocumentCategory = "proforma_invoice"
	DocumentCategoryCommercialInvoice        DocumentCategory = "commercial_invoice"
	DocumentCategoryPackingList              DocumentCategory = "packing_list"
	DocumentCategoryPhytosanitaryCertificate DocumentCategory = "phytosanitary_certificate"
	DocumentCategoryBillOfLading             DocumentCategory = "bill_of_lading"
	DocumentCategoryEuro1Certificate         DocumentCategory = "euro1_certificate"
	DocumentCategoryBrokerInvoice            DocumentCategory = "broker_invoice"
	DocumentCategoryOther                    DocumentCategory = "other"
)

func (c DocumentCategory) IsValid() bool {
	switch c {
	case DocumentCategoryQuote, DocumentCategoryProformaInvoice, DocumentCategoryCommercialInvoice,
		DocumentCategoryPackingList, DocumentCategoryPhytosanitaryCertificate, DocumentCategoryBillOfLading,
		DocumentCategoryEuro1Certificate, DocumentCategoryBrokerInvoice, DocumentCategoryOther:
		return true
	}
	return false
}

// AiStatus tracks the external extraction step: pending -> processing -> success|failed.
type AiStatus string

const (
	AiStatusPending    AiStatus = "pending"
	AiStatusProcessing AiStatus = "processing"
	AiStatusSuccess    AiStatus = "success"
	AiStatusFailed     AiStatus = "failed"
)

func (s AiStatus) IsValid() bool {
	switch s {
	case AiStatusPending, AiStatusProcessing, AiStatusSuccess, AiStatusFailed:
		return true
	}
	return false
}

func (s AiStatus) Value() (driver.Value, error) {
	if s != "" && !s.IsValid() {
		return nil, fmt.Errorf("invalid ai status %q", string(s))
	}
	return string(s), nil
}

func (s *AiStatus) Scan(src any) error {
	v, err := scanString(src)
	if err != nil {
		return err
	}
	*s = AiStatus(v)
	return nil
}

type ApprovalStatus string

const (
	ApprovalStatusPending      ApprovalStatus = "pending"
	ApprovalStatusApproved     ApprovalStatus = "approved"
	ApprovalStatusRejected     ApprovalStatus = "rejected"
	ApprovalStatusReviewNeeded ApprovalStatus = "review_needed"
)

func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected, ApprovalStatusReviewNeeded:
		return true
	}
	return false
}

// Decided reports whether a human has approved or rejected the document.
func (s ApprovalStatus) Decided() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusRejected
}

func (s ApprovalStatus) Value() (driver.Value, error) {
	if s != "" && !s.IsValid() {
		return nil, fmt.Errorf("invalid approval status %q", string(s))
	}
	return string(s), nil
}

func (s *ApprovalStatus) Scan(src any) error {
	v, err := scanString(src)
	if err != nil {
		return err
	}
	*s = ApprovalStatus(v)
	return nil
}

type ActivityAction string

const (
	ActivityActionValidated ActivityAction = "document_validated"
	ActivityActionApproved  ActivityAction = "document_approved"
	ActivityActionRejected  ActivityAction = "document_rejected"
	ActivityActionExtracted ActivityAction = "document_extracted"
)

func scanString(src any) (string, error) {
	switch v := src.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("cannot scan %T into string enum", src)
	}
}
