package auth

import "golang.org/x/crypto/bcrypt"

// PasswordHasher はパスワードの一方向ハッシュ化と照合を行う。
type PasswordHasher interface {
	// Hash は平文パスワードからソルト付きハッシュを生成する。
	Hash(plain string) (string, error)
	// Verify は平文パスワードがハッシュと一致するかを判定する。
	Verify(hash, plain string) bool
}

// BcryptHasher はbcryptによるPasswordHasherの実装。
// Costが0の場合はbcrypt.DefaultCostを使用する。
type BcryptHasher struct {
	Cost int
}

// Hash はbcryptでハッシュを生成する。ソルトはbcryptが内部で生成する。
func (b BcryptHasher) Hash(plain string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify はbcryptの定数時間比較でハッシュを照合する。
func (b BcryptHasher) Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

var _ PasswordHasher = BcryptHasher{}
