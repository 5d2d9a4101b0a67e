// Package services holds the error taxonomy shared by stage handlers,
// collaborator clients, and the sync engine.
package services
