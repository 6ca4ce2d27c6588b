package billing

import (
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"braintech-system/internal/database/models"
)

const (
	numberAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	numberSuffixLen  = 8
	maxNumberRetries = 20
)

// generateBillNumber produces a human-readable, date-prefixed bill number
// (PREFIX-YYMMDD-XXXXXXXX) and polls the bills table until an unused one is
// found. Attempts are capped so a pathological collision streak surfaces as a
// generation error instead of spinning forever.
func generateBillNumber(tx *gorm.DB, prefix string) (string, error) {
	dateStr := time.Now().Format("060102")

	for attempt := 0; attempt < maxNumberRetries; attempt++ {
		suffix := make([]byte, numberSuffixLen)
		for i := range suffix {
			suffix[i] = numberAlphabet[rand.Intn(len(numberAlphabet))]
		}
		number := fmt.Sprintf("%s-%s-%s", prefix, dateStr, suffix)

		var count int64
		if err := tx.Model(&models.Bill{}).Where("bill_number = ?", number).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return number, nil
		}
	}

	return "", errf(KindGeneration, "could not generate a unique bill number after %d attempts", maxNumberRetries)
}
