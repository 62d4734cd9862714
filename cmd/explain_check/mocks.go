package main

import (
	"context"
	"errors"

	"autovalue/internal/domain"
)

// memoryValuationRepo guarda las valuaciones de la corrida en memoria.
type memoryValuationRepo struct {
	items map[string]domain.Valuation
}

func newMemoryValuationRepo() *memoryValuationRepo {
	return &memoryValuationRepo{items: make(map[string]domain.Valuation)}
}

func (m *memoryValuationRepo) Create(_ context.Context, v domain.Valuation) error {
	m.items[v.ID] = v
	return nil
}

func (m *memoryValuationRepo) GetByID(_ context.Context, id string) (domain.Valuation, error) {
	v, ok := m.items[id]
	if !ok {
		return domain.Valuation{}, errors.New("valuation not found")
	}
	return v, nil
}

func (m *memoryValuationRepo) ListByUser(_ context.Context, userID string, _ int) ([]domain.Valuation, error) {
	var out []domain.Valuation
	for _, v := range m.items {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memoryValuationRepo) ListByVIN(_ context.Context, vin string, _ int) ([]domain.Valuation, error) {
	var out []domain.Valuation
	for _, v := range m.items {
		if v.Vehicle.VIN == vin {
			out = append(out, v)
		}
	}
	return out, nil
}

// UnlockPremium no maneja creditos: la corrida local no tiene cuentas.
func (m *memoryValuationRepo) UnlockPremium(_ context.Context, id string, debit *domain.CreditLedgerEntry) (bool, error) {
	if debit != nil {
		return false, errors.New("credits not supported in explain check")
	}
	v, ok := m.items[id]
	if !ok {
		return false, errors.New("valuation not found")
	}
	if v.IsPremium {
		return false, nil
	}
	v.IsPremium = true
	m.items[id] = v
	return true, nil
}
