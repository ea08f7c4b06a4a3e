package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ClientOrderPrefix는 이 시스템이 발주한 주문을 구분하는 접두사입니다
const ClientOrderPrefix = "rp-"

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New는 시간 순으로 정렬되는 ULID 문자열을 반환합니다
func New() string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), mono)
	if err != nil {
		panic(err)
	}
	return id.String()
}

// ClientOrderID는 거래소 newClientOrderId 제약(36자 이하)을 만족하는 주문 ID를 반환합니다
func ClientOrderID() string {
	return ClientOrderPrefix + New()
}
