package payment

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// 交易参考号规则:
// - 押金: LOAN_{借阅单ID}_{毫秒时间戳},如 LOAN_42_1706520000000
// - 罚金: 8位随机数字,如 03857214
// 网关回调只携带vnp_TxnRef,靠前缀区分两类支付

const loanTxnPrefix = "LOAN_"

// LoanTxnRef 生成押金交易参考号
func LoanTxnRef(loanID uint) string {
	return fmt.Sprintf("%s%d_%d", loanTxnPrefix, loanID, time.Now().UnixMilli())
}

// FineTxnRef 生成罚金交易参考号(8位随机数字)
func FineTxnRef() string {
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			// crypto/rand不可用时退化为时间戳尾数
			return fmt.Sprintf("%08d", time.Now().UnixMilli()%100000000)
		}
		sb.WriteString(n.String())
	}
	return sb.String()
}

// ParseLoanTxnRef 从押金交易参考号解析借阅单ID
// 非押金参考号返回(0, false)
func ParseLoanTxnRef(txnRef string) (uint, bool) {
	if !strings.HasPrefix(txnRef, loanTxnPrefix) {
		return 0, false
	}
	rest := strings.TrimPrefix(txnRef, loanTxnPrefix)
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		return 0, false
	}
	id, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// IsLoanTxnRef 是否押金交易参考号
func IsLoanTxnRef(txnRef string) bool {
	_, ok := ParseLoanTxnRef(txnRef)
	return ok
}
