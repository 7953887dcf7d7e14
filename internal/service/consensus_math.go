package service

import (
	"sort"

	"github.com/google/uuid"

	"github.com/ignatzorin/arbitration-backend/internal/models"
)

// Вся арифметика консенсуса — целочисленная с усечением к нулю. Результат
// зависит только от множества голосов: везде сортировка, нигде порядок подачи.

// VoteResult — вычисленный итог одного голоса.
type VoteResult struct {
	VoteID    uuid.UUID
	VoterID   uuid.UUID
	Karma     int64
	Deviation int64
	Outlier   bool
}

// SessionOutcome — полный детерминированный итог сессии.
type SessionOutcome struct {
	Consensus  int64
	Dispersion int64
	Threshold  int64
	Votes      []VoteResult
}

// computeOutcome вычисляет консенсус, дисперсию, порог и флаги выбросов.
// Порядок Votes в результате совпадает с порядком на входе.
func computeOutcome(votes []models.Vote, outlierMinRange int64) SessionOutcome {
	consensus := weightedMedian(votes)

	deviations := make([]int64, len(votes))
	for i, v := range votes {
		deviations[i] = absDiff(v.Percent, consensus)
	}

	dispersion := median(deviations)

	threshold := 3 * dispersion
	if threshold < outlierMinRange {
		threshold = outlierMinRange
	}

	results := make([]VoteResult, len(votes))
	for i, v := range votes {
		results[i] = VoteResult{
			VoteID:    v.ID,
			VoterID:   v.VoterID,
			Karma:     v.Karma,
			Deviation: deviations[i],
			Outlier:   deviations[i] > threshold,
		}
	}

	return SessionOutcome{
		Consensus:  consensus,
		Dispersion: dispersion,
		Threshold:  threshold,
		Votes:      results,
	}
}

// weightedMedian — медиана значений, взвешенная кармой на момент подачи.
// Голоса сортируются по значению; консенсус — первое значение, на котором
// накопленный вес достигает половины суммарного. При точном попадании на
// середину выигрывает меньший (более консервативный) процент.
func weightedMedian(votes []models.Vote) int64 {
	sorted := make([]models.Vote, len(votes))
	copy(sorted, votes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Percent < sorted[j].Percent
	})

	var total int64
	for _, v := range sorted {
		total += v.Karma
	}

	var cum int64
	for _, v := range sorted {
		cum += v.Karma
		if 2*cum >= total {
			return v.Percent
		}
	}

	// Достижимо только при пустом списке; вызывающий гарантирует кворум.
	return 0
}

// median — обычная (невзвешенная) медиана; при чётном количестве — усечённое
// среднее двух средних элементов, что для нечётного совпадает со средним
// элементом.
func median(values []int64) int64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	n := len(sorted)
	return (sorted[(n-1)/2] + sorted[n/2]) / 2
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}

// Payout — одна инструкция хранителю средств.
type Payout struct {
	Recipient   uuid.UUID
	Amount      int64
	Description string
}

// settlementPlan раскладывает escrow дела по итогам консенсуса.
//
// Тело дела делится по проценту консенсуса, остаток от усечения — клиенту.
// Комиссии возвращаются «обратной пропорцией»: каждая сторона получает долю
// собственной комиссии, равную её выигрышу. Невозвращённый остаток обеих
// комиссий образует пул наград, делимый между не-выбросами пропорционально
// зафиксированной карме; остаток пула также уходит клиенту, чтобы суммы
// сходились до единицы.
func settlementPlan(c *models.Case, outcome SessionOutcome) ([]Payout, bool) {
	consensus := outcome.Consensus

	contractorShare := c.Amount * consensus / 100
	clientShare := c.Amount - contractorShare

	contractorFeeRefund := c.FeeAmount * consensus / 100
	clientFeeRefund := c.FeeAmount * (100 - consensus) / 100
	pool := 2*c.FeeAmount - contractorFeeRefund - clientFeeRefund

	var valid []VoteResult
	var totalKarma int64
	for _, v := range outcome.Votes {
		if !v.Outlier {
			valid = append(valid, v)
			totalKarma += v.Karma
		}
	}
	if len(valid) == 0 || totalKarma == 0 {
		return nil, false
	}

	// Порядок выплат фиксируем по идентификатору арбитра, а не по порядку
	// подачи голосов.
	sort.Slice(valid, func(i, j int) bool {
		return valid[i].VoterID.String() < valid[j].VoterID.String()
	})

	payouts := []Payout{
		{Recipient: c.ContractorID, Amount: contractorShare + contractorFeeRefund, Description: "Выплата по консенсусному вердикту"},
	}

	distributed := int64(0)
	for _, v := range valid {
		reward := pool * v.Karma / totalKarma
		distributed += reward
		if reward > 0 {
			payouts = append(payouts, Payout{
				Recipient:   v.VoterID,
				Amount:      reward,
				Description: "Награда арбитра за сессию",
			})
		}
	}

	clientTotal := clientShare + clientFeeRefund + (pool - distributed)
	payouts = append(payouts, Payout{
		Recipient:   c.ClientID,
		Amount:      clientTotal,
		Description: "Выплата по консенсусному вердикту",
	})

	return payouts, true
}

// verdictPayouts — выплаты при принятом автоматическом вердикте: тело по
// проценту, обе комиссии возвращаются полностью.
func verdictPayouts(c *models.Case, percent int64) []Payout {
	contractorShare := c.Amount * percent / 100
	clientShare := c.Amount - contractorShare

	return []Payout{
		{Recipient: c.ContractorID, Amount: contractorShare, Description: "Выплата по принятому вердикту"},
		{Recipient: c.ClientID, Amount: clientShare, Description: "Выплата по принятому вердикту"},
		{Recipient: c.ClientID, Amount: c.FeeAmount, Description: "Возврат комиссии"},
		{Recipient: c.ContractorID, Amount: c.FeeAmount, Description: "Возврат комиссии"},
	}
}
