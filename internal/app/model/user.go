package model

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string // 사용자 권한 타입

const (
	RoleStudent     UserRole = "student"      // 지원자
	RoleUniversity  UserRole = "university"   // 대학 관리자 계정
	RoleAdmin       UserRole = "admin"        // 관리자 권한
	RoleSystemAdmin UserRole = "system_admin" // 대학 인증 심사 권한
)

// UserProfile carries the verification state of a university account
type UserProfile struct {
	IsVerified            bool               `gorm:"default:false;not null" json:"is_verified"`
	VerificationStatus    VerificationStatus `gorm:"type:varchar(20)" json:"verification_status,omitempty"`
	VerificationRequestID string             `gorm:"type:varchar(64);index" json:"verification_request_id,omitempty"`
}

type User struct {
	ID           string         `gorm:"primaryKey;type:varchar(64)" json:"id"`              // 사용자 ID
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`                  // 이메일
	PasswordHash string         `json:"-"`                                                  // 비밀번호 해시
	Name         string         `gorm:"not null" json:"name"`                               // 이름
	Phone        string         `json:"phone"`                                              // 전화번호
	Role         UserRole       `gorm:"type:varchar(20);default:'student'" json:"role"`     // 권한
	Profile      UserProfile    `gorm:"embedded;embeddedPrefix:profile_" json:"profile"`    // 인증 상태
	CreatedAt    time.Time      `json:"created_at"`                                         // 생성 시각
	UpdatedAt    time.Time      `json:"updated_at"`                                         // 수정 시각
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                     // 삭제 시각(소프트 삭제)
}

func (User) TableName() string {
	return "users"
}
