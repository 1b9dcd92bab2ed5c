package service

import "time"

// Test hooks for pinning the clock.

func SetNowForTest(s *RecurrenceService, now func() time.Time) { s.now = now }

func SetBudgetNowForTest(s *BudgetService, now func() time.Time) { s.now = now }
