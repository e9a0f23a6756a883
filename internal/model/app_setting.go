package model

import "time"

// Ключи настроек приложения
const SettingServiceFeePercentage = "service_fee_percentage"

type AppSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
