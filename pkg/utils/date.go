package utils

import "time"

func ParseDate(dateStr string) (*time.Time, error) {
	var date time.Time

	if dateStr != "" {
		incomingDate, err := time.Parse(time.DateOnly, dateStr)
		if err != nil {
			return nil, err
		}

		date = incomingDate
	}

	return &date, nil
}

// IsDateOnly informa se a string está no formato YYYY-MM-DD aceito pela Graph API em time_range
func IsDateOnly(dateStr string) bool {
	_, err := time.Parse(time.DateOnly, dateStr)
	return err == nil
}
