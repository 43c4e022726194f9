package models

import (
	"database/sql"
	"time"
)

// ProductState is a stage of the per-product import pipeline.
type ProductState string

const (
	StatePending           ProductState = "PENDING"
	StateGroupResolved     ProductState = "GROUP_RESOLVED"
	StateAttrsReconciled   ProductState = "ATTRS_RECONCILED"
	StateVariantGroupBound ProductState = "VARIANT_GROUP_BOUND"
	StateSubmitting        ProductState = "SUBMITTING"
	StateDone              ProductState = "DONE"
	StateFailed            ProductState = "FAILED"
)

// RunStatus summarises an import run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusPartial RunStatus = "partial"
	RunStatusFailed  RunStatus = "failed"
)

// AxisAction records what reconciliation did for one option axis.
type AxisAction string

const (
	AxisCreated   AxisAction = "created"
	AxisPatched   AxisAction = "patched"
	AxisUnchanged AxisAction = "unchanged"
	AxisFailed    AxisAction = "failed"
	AxisSkipped   AxisAction = "skipped"
)

// VariantStatus records the outcome of one variant submission.
type VariantStatus string

const (
	VariantSubmitted VariantStatus = "submitted"
	VariantSkipped   VariantStatus = "skipped"
	VariantFailed    VariantStatus = "failed"
)

// ImportRun is one execution of the import pipeline over the catalog.
type ImportRun struct {
	ID         string         `db:"id" json:"id"`
	Status     RunStatus      `db:"status" json:"status"`
	Trigger    string         `db:"trigger" json:"trigger"`
	Total      int            `db:"total" json:"total"`
	Succeeded  int            `db:"succeeded" json:"succeeded"`
	Failed     int            `db:"failed" json:"failed"`
	Error      *string        `db:"error" json:"error,omitempty"`
	Report     sql.NullString `db:"report" json:"-"`
	StartedAt  time.Time      `db:"started_at" json:"startedAt"`
	FinishedAt *time.Time     `db:"finished_at" json:"finishedAt,omitempty"`

	Products []ProductReport `db:"-" json:"products,omitempty"`
}

// ProductReport is the final state of one external product within a run.
type ProductReport struct {
	ProductID        string          `json:"productId"`
	Title            string          `json:"title"`
	State            ProductState    `json:"state"`
	FailedStage      ProductState    `json:"failedStage,omitempty"`
	Reason           string          `json:"reason,omitempty"`
	GroupID          string          `json:"groupId,omitempty"`
	VariantGroupUUID string          `json:"variantGroupUuid,omitempty"`
	Axes             []AxisReport    `json:"axes,omitempty"`
	Variants         []VariantReport `json:"variants,omitempty"`
	Warnings         []string        `json:"warnings,omitempty"`
}

// Fail moves the report to FAILED, remembering the stage that failed.
func (r *ProductReport) Fail(stage ProductState, err error) {
	r.FailedStage = stage
	r.State = StateFailed
	if err != nil {
		r.Reason = err.Error()
	}
}

// AxisReport is the reconciliation outcome of one option axis.
type AxisReport struct {
	Axis        string     `json:"axis"`
	Code        string     `json:"code"`
	AttributeID string     `json:"attributeId,omitempty"`
	Action      AxisAction `json:"action"`
	Added       []string   `json:"added,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// VariantReport is the submission outcome of one enabled variant.
type VariantReport struct {
	VariantID   string        `json:"variantId"`
	SKU         string        `json:"sku"`
	ProductUUID string        `json:"productUuid,omitempty"`
	Status      VariantStatus `json:"status"`
	Error       string        `json:"error,omitempty"`
	Warnings    []string      `json:"warnings,omitempty"`
}

// VariantGroupBinding remembers the variant group created for a catalog product.
type VariantGroupBinding struct {
	ExternalProductID string    `db:"external_product_id" json:"externalProductId"`
	VariantGroupUUID  string    `db:"variant_group_uuid" json:"variantGroupUuid"`
	AttributeGroupID  string    `db:"attribute_group_id" json:"attributeGroupId"`
	AttributeCodes    string    `db:"attribute_codes" json:"attributeCodes"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
}

// SubmittedVariant remembers the store product created for a catalog variant.
type SubmittedVariant struct {
	ExternalVariantID string    `db:"external_variant_id" json:"externalVariantId"`
	ExternalProductID string    `db:"external_product_id" json:"externalProductId"`
	ProductUUID       string    `db:"product_uuid" json:"productUuid"`
	VariantGroupUUID  *string   `db:"variant_group_uuid" json:"variantGroupUuid,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}

// IsMember reports whether the product was attached to its variant group.
func (s *SubmittedVariant) IsMember() bool {
	return s.VariantGroupUUID != nil && *s.VariantGroupUUID != ""
}
