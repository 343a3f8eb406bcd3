package auth

// User 為登入流程所需的最小使用者資料。
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Active       bool
	Blocked      bool
}

// UserDetails 為驗證與回應組裝所需的完整使用者資料。
type UserDetails struct {
	ID           int64
	Username     string
	PasswordHash string
	FullName     string
	Email        string
	RoleName     string
	Active       bool
	Blocked      bool
}

// Summary 轉成對外回應用的摘要。
func (u UserDetails) Summary() UserSummary {
	return UserSummary{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Email:    u.Email,
		Role:     u.RoleName,
	}
}

// UserSummary 是回應 payload 中的使用者摘要，欄位名稱沿用西班牙文線格式。
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"nombreCompleto"`
	Email    string `json:"email"`
	Role     string `json:"rol"`
}
