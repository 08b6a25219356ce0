package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/capy-market/capybara-backend/internal/model"
	"github.com/capy-market/capybara-backend/internal/repository"
)

var (
	ErrInitDataInvalid   = errors.New("Telegram initData 校验失败")
	ErrInitDataExpired   = errors.New("Telegram initData 已过期")
	ErrUserDisabled      = errors.New("账号已被封禁")
	ErrPasswordIncorrect = errors.New("用户名或密码错误")
)

// initDataMaxAge initData 的最大可接受年龄
const initDataMaxAge = 24 * time.Hour

// TelegramProfile Telegram Mini App 透传的用户信息
type TelegramProfile struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	PhotoURL  string `json:"photo_url"`
}

// AuthService 认证服务
// Telegram 签名校验 + 用户登记 + 令牌签发
type AuthService interface {
	// LoginWithTelegram 校验 initData，按 telegram_id 登记/更新用户并签发令牌
	LoginWithTelegram(ctx context.Context, initData string) (*model.User, string, string, error)
	// StaffLogin 运营账号用户名密码登录
	StaffLogin(ctx context.Context, username, password string) (*model.User, string, string, error)
	// Refresh 用刷新令牌换取新令牌对，旧刷新令牌作废
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
	// Logout 吊销刷新令牌，使其不能再换取新令牌
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	userRepo repository.UserRepository
	tokens   TokenService
	botToken string
	now      func() time.Time
}

// NewAuthService 创建认证服务
func NewAuthService(userRepo repository.UserRepository, tokens TokenService, botToken string) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		botToken: botToken,
		now:      time.Now,
	}
}

// VerifyTelegramInitData 校验 Telegram Mini App initData 的签名链
// secret = HMAC_SHA256(key="WebAppData", msg=botToken)
// hash   = HMAC_SHA256(key=secret, msg=按键名排序的 k=v 行)
func VerifyTelegramInitData(initData, botToken string) bool {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return false
	}
	received := values.Get("hash")
	if received == "" {
		return false
	}
	values.Del("hash")

	lines := make([]string, 0, len(values))
	for key := range values {
		lines = append(lines, key+"="+values.Get(key))
	}
	sort.Strings(lines)
	checkString := strings.Join(lines, "\n")

	secretMac := hmac.New(sha256.New, []byte("WebAppData"))
	secretMac.Write([]byte(botToken))
	secret := secretMac.Sum(nil)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(checkString))
	calculated := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(calculated), []byte(received))
}

func (s *authService) LoginWithTelegram(ctx context.Context, initData string) (*model.User, string, string, error) {
	if !VerifyTelegramInitData(initData, s.botToken) {
		return nil, "", "", ErrInitDataInvalid
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, "", "", ErrInitDataInvalid
	}

	// auth_date 过旧的 initData 拒绝重放
	if authDate := values.Get("auth_date"); authDate != "" {
		if ts, err := strconv.ParseInt(authDate, 10, 64); err == nil {
			if s.now().Sub(time.Unix(ts, 0)) > initDataMaxAge {
				return nil, "", "", ErrInitDataExpired
			}
		}
	}

	var profile TelegramProfile
	if err := json.Unmarshal([]byte(values.Get("user")), &profile); err != nil || profile.ID == 0 {
		return nil, "", "", ErrInitDataInvalid
	}

	user, err := s.upsertTelegramUser(ctx, &profile)
	if err != nil {
		return nil, "", "", err
	}
	if !user.IsActive() {
		return nil, "", "", ErrUserDisabled
	}

	access, refresh, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, "", "", err
	}
	return user, access, refresh, nil
}

// upsertTelegramUser 按 telegram_id 登记用户，已存在时刷新资料
func (s *authService) upsertTelegramUser(ctx context.Context, profile *TelegramProfile) (*model.User, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, profile.ID)
	if errors.Is(err, repository.ErrUserNotFound) {
		user = &model.User{
			TelegramID: profile.ID,
			Username:   profile.Username,
			FirstName:  profile.FirstName,
			LastName:   profile.LastName,
			PhotoURL:   profile.PhotoURL,
			Status:     model.UserStatusActive,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}
	if err != nil {
		return nil, err
	}

	user.Username = profile.Username
	user.FirstName = profile.FirstName
	user.LastName = profile.LastName
	if profile.PhotoURL != "" {
		user.PhotoURL = profile.PhotoURL
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) StaffLogin(ctx context.Context, username, password string) (*model.User, string, string, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, "", "", ErrPasswordIncorrect
	}
	if !user.IsStaff || !user.VerifyPassword(password) {
		return nil, "", "", ErrPasswordIncorrect
	}
	if !user.IsActive() {
		return nil, "", "", ErrUserDisabled
	}

	access, refresh, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, "", "", err
	}
	return user, access, refresh, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	claims, err := s.tokens.ValidateToken(ctx, refreshToken)
	if err != nil {
		return "", "", err
	}
	if claims.Type != "refresh" {
		return "", "", ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", "", ErrInvalidToken
	}
	if !user.IsActive() {
		return "", "", ErrUserDisabled
	}

	// 旧刷新令牌作废，防止重放
	if err := s.tokens.RevokeToken(ctx, refreshToken); err != nil {
		return "", "", err
	}
	return s.issueTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.ValidateToken(ctx, refreshToken)
	if err != nil {
		// 已吊销或已过期的令牌，登出视为成功
		if errors.Is(err, ErrTokenRevoked) || errors.Is(err, ErrTokenExpired) {
			return nil
		}
		return err
	}
	if claims.Type != "refresh" {
		return ErrInvalidToken
	}
	return s.tokens.RevokeToken(ctx, refreshToken)
}

func (s *authService) issueTokens(ctx context.Context, user *model.User) (string, string, error) {
	base := TokenClaims{
		UserID:     user.ID,
		TelegramID: user.TelegramID,
		Username:   user.Username,
		IsStaff:    user.IsStaff,
	}

	accessClaims := base
	access, err := s.tokens.GenerateAccessToken(ctx, &accessClaims)
	if err != nil {
		return "", "", err
	}
	refreshClaims := base
	refresh, err := s.tokens.GenerateRefreshToken(ctx, &refreshClaims)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}
