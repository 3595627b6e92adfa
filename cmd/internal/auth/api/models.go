package authapi

import "time"

type messageResponse struct {
	Message string `json:"message"`
}

type initiateResponse struct {
	SessionID       string    `json:"sessionId"`
	ServerPublicKey string    `json:"serverPublicKey"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

type completeRequest struct {
	SessionID       string `json:"sessionId"`
	ClientPublicKey string `json:"clientPublicKey"`
}

type heartbeatRequest struct {
	SessionID string `json:"sessionId"`
}

type heartbeatResponse struct {
	IsValid        bool      `json:"isValid"`
	LastActivityAt time.Time `json:"lastActivityAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
	NewToken       *string   `json:"newToken"`
}

type sessionResponse struct {
	ID               string    `json:"id"`
	IPAddress        string    `json:"ipAddress"`
	Browser          string    `json:"browser"`
	OperatingSystem  string    `json:"operatingSystem"`
	DeviceType       string    `json:"deviceType"`
	Location         *string   `json:"location"`
	CreatedAt        time.Time `json:"createdAt"`
	LastActivityAt   time.Time `json:"lastActivityAt"`
	ExpiresAt        time.Time `json:"expiresAt"`
	IsCurrentSession bool      `json:"isCurrentSession"`
}

type sessionsResponse struct {
	ActiveSessions   []sessionResponse `json:"activeSessions"`
	TotalSessions    int               `json:"totalSessions"`
	CurrentSessionID string            `json:"currentSessionId"`
}

type revokeOthersResponse struct {
	Message         string `json:"message"`
	RevokedSessions int    `json:"revokedSessions"`
}

type validateResponse struct {
	IsValid   bool   `json:"isValid"`
	SessionID string `json:"sessionId"`
}

// noteRequest carries RSA-encrypted fields (base64) toward the handshake server key.
type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// noteResponse carries fields RSA-encrypted toward the client key.
type noteResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type notesResponse struct {
	Notes []noteResponse `json:"notes"`
}

// passwordRequest carries RSA-encrypted fields (base64). Optional fields may be null.
type passwordRequest struct {
	SiteName string  `json:"siteName"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	URL      string  `json:"url"`
	ServerIP *string `json:"serverIp"`
	Hostname *string `json:"hostname"`
	Notes    *string `json:"notes"`
}

type passwordResponse struct {
	ID        string    `json:"id"`
	SiteName  string    `json:"siteName"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	URL       string    `json:"url"`
	ServerIP  *string   `json:"serverIp"`
	Hostname  *string   `json:"hostname"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type passwordsResponse struct {
	Passwords []passwordResponse `json:"passwords"`
}
