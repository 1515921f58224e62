package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

// Message keys. The key is also the English text.
const (
	MsgTagline          = "Stake your %s tokens and earn rewards"
	MsgTotalValueLocked = "Total Value Locked"
	MsgYourBalance      = "Your Balance"
	MsgCurrentAPY       = "Current APY"
	MsgAnnualYield      = "Annual Yield"
	MsgPendingRewards   = "Pending Rewards"
	MsgNextReward       = "Next reward"
	MsgLoading          = "Loading..."
	MsgRefresh          = "Refresh"

	MsgDeposit      = "Deposit"
	MsgWithdraw     = "Withdraw"
	MsgClaimRewards = "Claim Rewards"
	MsgProcessing   = "Processing..."

	MsgDepositTitle      = "Deposit %s"
	MsgAmountToDeposit   = "Amount to Deposit"
	MsgDepositSuccessful = "Deposit Successful!"
	MsgDeposited         = "%s %s deposited"
	MsgClose             = "Close"

	MsgAmountEmpty       = "Enter an amount"
	MsgAmountNotNumeric  = "Amount must be a number"
	MsgAmountNotPositive = "Amount must be greater than zero"

	MsgWalletNotConnected = "Wallet Not Connected"
	MsgConnectPrompt      = "Connect your wallet to interact with the vault"
	MsgConnect            = "Connect"
	MsgConnecting         = "Connecting..."
	MsgDisconnect         = "Disconnect"
	MsgNoProvider         = "No wallet provider is configured"
	MsgChain              = "Chain %s"

	MsgOperationFailed = "%s failed: %s"
)

var messages = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, ko := range korean {
		// English keys double as the English text; an explicit entry keeps
		// the fallback printer from having to guess.
		if err := b.SetString(language.English, key, key); err != nil {
			panic(err)
		}
		if err := b.SetString(language.Korean, key, ko); err != nil {
			panic(err)
		}
	}
	return b
}

var korean = map[string]string{
	MsgTagline:          "%s 토큰을 스테이킹하고 보상을 받으세요",
	MsgTotalValueLocked: "총 예치 자산",
	MsgYourBalance:      "내 잔액",
	MsgCurrentAPY:       "현재 APY",
	MsgAnnualYield:      "연간 수익률",
	MsgPendingRewards:   "미수령 보상",
	MsgNextReward:       "다음 보상",
	MsgLoading:          "불러오는 중...",
	MsgRefresh:          "새로고침",

	MsgDeposit:      "예치",
	MsgWithdraw:     "출금",
	MsgClaimRewards: "보상 받기",
	MsgProcessing:   "처리 중...",

	MsgDepositTitle:      "%s 예치",
	MsgAmountToDeposit:   "예치 금액",
	MsgDepositSuccessful: "예치 완료!",
	MsgDeposited:         "%s %s 예치됨",
	MsgClose:             "닫기",

	MsgAmountEmpty:       "금액을 입력하세요",
	MsgAmountNotNumeric:  "금액은 숫자여야 합니다",
	MsgAmountNotPositive: "금액은 0보다 커야 합니다",

	MsgWalletNotConnected: "지갑이 연결되지 않음",
	MsgConnectPrompt:      "볼트를 이용하려면 지갑을 연결하세요",
	MsgConnect:            "연결",
	MsgConnecting:         "연결 중...",
	MsgDisconnect:         "연결 해제",
	MsgNoProvider:         "설정된 지갑 제공자가 없습니다",
	MsgChain:              "체인 %s",

	MsgOperationFailed: "%s 실패: %s",
}
