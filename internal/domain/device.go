package domain

// Device: одно устройство в сети, как его вернул бэкенд на /scan.
// Клиент никогда не меняет поля устройства локально.
type Device struct {
	ID              string   `json:"id"`              // уникален в пределах одного ответа сканирования
	Name            string   `json:"name"`            // отображаемое имя, например "Device_192.168.1.10"
	Traffic         float64  `json:"traffic"`         // объем трафика в МБ
	Status          string   `json:"status"`          // состояние, как его сообщил бэкенд
	Vulnerabilities []string `json:"vulnerabilities"` // метки уязвимостей, ключи для recommend.Lookup
}

// ScanResponse: тело ответа GET /scan.
// Бэкенд может вернуть 200 и непустой Error, если его собственное сканирование упало.
type ScanResponse struct {
	Devices []Device `json:"devices"`
	Error   string   `json:"error,omitempty"`
}
