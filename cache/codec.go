package cache

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/ugorji/go/codec"
)

// errEmptyBytes 缓存值为空,通常是key被其他客户端写成了空串
var errEmptyBytes = errors.New("cache: empty bytes to decode")

// msgpackHandle 缓存对象(如统计的Views)使用的msgpack编码,未知结构解码为map[string]interface{}
var msgpackHandle = func() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.MapType = reflect.TypeOf(map[string]interface{}(nil))
	return h
}()

// MsgPackEncodeBytes 使用msgpack编码data,SetObject写入Redis前调用
func MsgPackEncodeBytes(data interface{}) ([]byte, error) {
	var bytes []byte
	if err := codec.NewEncoderBytes(&bytes, msgpackHandle).Encode(data); err != nil {
		return nil, fmt.Errorf("cache: msgpack encode %T: %w", data, err)
	}
	return bytes, nil
}

// MsgPackDecodeBytes 将GetObject读到的msgpack数据解码到dest
func MsgPackDecodeBytes(bytes []byte, dest interface{}) error {
	if len(bytes) == 0 {
		return errEmptyBytes
	}
	if err := codec.NewDecoderBytes(bytes, msgpackHandle).Decode(dest); err != nil {
		return fmt.Errorf("cache: msgpack decode %T: %w", dest, err)
	}
	return nil
}
