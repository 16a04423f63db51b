// Package role decides whether a caller's role permits an operation. The role
// set is closed and the operation table is static; an unrecognized role or
// operation is always denied.
package role

import "errors"

type Role string

const (
	Admin      Role = "Admin"
	Moderator  Role = "Moderator"
	Customer   Role = "Customer"
	Finance    Role = "Finance"
	Delivery   Role = "Delivery"
	Production Role = "Production"
)

// All lists every recognized role.
var All = []Role{Admin, Moderator, Customer, Finance, Delivery, Production}

var ErrDenied = errors.New("operation not permitted")

// Parse maps a stored role string onto the closed enum. Unknown strings do not
// parse; callers must treat that as a denial, never as a default role.
func Parse(s string) (Role, bool) {
	for _, r := range All {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

type Operation string

const (
	OpUsersList            Operation = "users.list"
	OpUserRoleUpdate       Operation = "users.role_update"
	OpProductCreate        Operation = "products.create"
	OpOrderCreate          Operation = "orders.create"
	OpOrdersList           Operation = "orders.list"
	OpDeliveriesList       Operation = "deliveries.list"
	OpDeliveryStatusUpdate Operation = "deliveries.status_update"
	OpFinanceList          Operation = "finance.list"
	OpProductionList       Operation = "production.list"
	OpProductionCreate     Operation = "production.create"
	OpAuditList            Operation = "audit.list"
)

// permitted statically maps each operation onto its allowed-role set.
var permitted = map[Operation][]Role{
	OpUsersList:            {Admin},
	OpUserRoleUpdate:       {Admin},
	OpProductCreate:        {Admin, Moderator},
	OpOrderCreate:          All,
	OpOrdersList:           {Admin, Finance},
	OpDeliveriesList:       {Admin, Delivery},
	OpDeliveryStatusUpdate: {Admin, Delivery},
	OpFinanceList:          {Admin, Finance},
	OpProductionList:       {Admin, Production},
	OpProductionCreate:     {Admin, Production},
	OpAuditList:            {Admin},
}

// Authorize returns nil when the caller's role is in the operation's allowed
// set, ErrDenied otherwise. It is a pure decision: no side effects, so a denial
// can safely terminate a request before any write happens.
func Authorize(r Role, op Operation) error {
	if _, ok := Parse(string(r)); !ok {
		return ErrDenied
	}
	for _, allowed := range permitted[op] {
		if allowed == r {
			return nil
		}
	}
	return ErrDenied
}
