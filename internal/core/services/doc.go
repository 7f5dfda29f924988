// Package services contains the core business logic, wired to
// infrastructure through the driven ports and exposed to adapters
// through the driving ports.
package services
