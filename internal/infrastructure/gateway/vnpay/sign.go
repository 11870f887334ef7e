package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// 签名相关参数,不参与哈希计算
const (
	paramSecureHash     = "vnp_SecureHash"
	paramSecureHashType = "vnp_SecureHashType"
)

// buildHashData 构建待签名字符串
// 网关签名规则:
// 1. 按参数名字母序排序
// 2. 空值参数与签名字段本身不参与
// 3. 格式为 key=urlencode(value),用&连接(key不编码,value编码)
func buildHashData(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" || k == paramSecureHash || k == paramSecureHashType {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(params[k]))
	}
	return sb.String()
}

// hmacSHA512 计算HMAC-SHA512签名(十六进制小写)
func hmacSHA512(secret, data string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// signParams 对参数签名
func signParams(secret string, params map[string]string) string {
	return hmacSHA512(secret, buildHashData(params))
}

// verifySignature 校验签名(常数时间比较,防时序攻击)
func verifySignature(secret string, params map[string]string, receivedHash string) bool {
	if receivedHash == "" {
		return false
	}
	expected := signParams(secret, params)
	return hmac.Equal([]byte(strings.ToLower(receivedHash)), []byte(expected))
}
