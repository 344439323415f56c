package api

// LoginRequest представляет запрос на получение admin токена
type LoginRequest struct {
	APIKey string `json:"api_key" validate:"required,min=16"` // admin API key (в конфиге хранится bcrypt хеш)
}

// TokenResponse представляет ответ с токеном доступа
type TokenResponse struct {
	AccessToken string `json:"access_token"` // JWT access token
	ExpiresIn   int64  `json:"expires_in"`   // время жизни access token в секундах
	AdminID     int64  `json:"admin_id"`     // id админа, от имени которого выполняются запросы
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string            `json:"error"`             // машинный код ошибки
	Message string            `json:"message,omitempty"` // описание для человека
	Fields  map[string]string `json:"fields,omitempty"`  // ошибки валидации по полям
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Database string `json:"database"`
}
