package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

// 收货码字符集去掉了易混淆的 0/O/1/I
const deliveryCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// generateDeliveryCode 生成指定长度的收货码（大写字母与数字）
func generateDeliveryCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("生成收货码失败: %w", err)
	}
	for i := range buf {
		buf[i] = deliveryCodeAlphabet[int(buf[i])%len(deliveryCodeAlphabet)]
	}
	return string(buf), nil
}

// hashDeliveryCode 收货码哈希（sha256 hex）
func hashDeliveryCode(code string) string {
	sum := sha256.Sum256([]byte(strings.ToUpper(strings.TrimSpace(code))))
	return hex.EncodeToString(sum[:])
}

// matchDeliveryCode 常数时间比较收货码与哈希
func matchDeliveryCode(code, hash string) bool {
	if hash == "" {
		return false
	}
	computed := hashDeliveryCode(code)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
