package registry

// Exchange 交易所静态信息，启动时由代码内的常量播种
type Exchange struct {
	ID   int    `gorm:"primaryKey"`
	Name string `gorm:"size:32"`
	URL  string `gorm:"size:128"`
}

func (Exchange) TableName() string { return "exchanges" }

// Subscription 用户在某交易所的订阅（含只读 API 凭据）
type Subscription struct {
	UID        int64  `gorm:"primaryKey;column:uid;autoIncrement:false"`
	ExchangeID int    `gorm:"primaryKey;autoIncrement:false"`
	APIKey     string `gorm:"size:128;column:api_key"`
	SecretKey  string `gorm:"size:128;column:secret_key"`
}

func (Subscription) TableName() string { return "subscriptions" }

// UserOrder 已入册的订单 id，PK 覆盖全部三列，插入天然幂等
type UserOrder struct {
	UID        int64  `gorm:"primaryKey;column:uid;autoIncrement:false"`
	ExchangeID int    `gorm:"primaryKey;autoIncrement:false"`
	OrderID    string `gorm:"primaryKey;size:64;column:order_id"`
}

func (UserOrder) TableName() string { return "user_orders" }
