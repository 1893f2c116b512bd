package main

import (
	"math/big"
	"reflect"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

// mapStringArgs converts command line values into the Go types the ABI packer
// expects for every input.
func mapStringArgs(inputs abi.Arguments, args []string) ([]interface{}, error) {
	if len(inputs) != len(args) {
		err := errors.Errorf("wrong args count, expected %d but got %d", len(inputs), len(args))
		return nil, err
	} else if len(args) == 0 {
		return nil, nil
	}

	out := make([]interface{}, len(inputs))

	for idx, input := range inputs {
		switch input.Type.T {
		case abi.IntTy:
			switch input.Type.Size {
			case 8, 16, 32, 64:
			default:
				i, ok := new(big.Int).SetString(args[idx], 10)
				if !ok {
					err := errors.Errorf("argument %s (idx %d) type %s failed to parse: %s",
						input.Name, idx, input.Type.String(), args[idx])
					return nil, err
				}

				out[idx] = i
				continue
			}

			i, err := strconv.ParseInt(args[idx], 10, input.Type.Size)
			if err != nil {
				err := errors.Wrapf(err, "argument %s (idx %d) type %s failed to parse: %s",
					input.Name, idx, input.Type.String(), args[idx])
				return nil, err
			}

			switch input.Type.Size {
			case 8:
				out[idx] = int8(i)
			case 16:
				out[idx] = int16(i)
			case 32:
				out[idx] = int32(i)
			case 64:
				out[idx] = i
			}

		case abi.UintTy:
			switch input.Type.Size {
			case 8, 16, 32, 64:
			default:
				i, ok := new(big.Int).SetString(args[idx], 10)
				if !ok || i.Sign() < 0 {
					err := errors.Errorf("argument %s (idx %d) type %s failed to parse: %s",
						input.Name, idx, input.Type.String(), args[idx])
					return nil, err
				}

				out[idx] = i
				continue
			}

			i, err := strconv.ParseUint(args[idx], 10, input.Type.Size)
			if err != nil {
				err := errors.Wrapf(err, "argument %s (idx %d) type %s failed to parse: %s",
					input.Name, idx, input.Type.String(), args[idx])
				return nil, err
			}

			switch input.Type.Size {
			case 8:
				out[idx] = uint8(i)
			case 16:
				out[idx] = uint16(i)
			case 32:
				out[idx] = uint32(i)
			case 64:
				out[idx] = i
			}

		case abi.BoolTy:
			b, err := strconv.ParseBool(args[idx])
			if err != nil {
				err := errors.Wrapf(err, "argument %s (idx %d) type bool failed to parse: %s",
					input.Name, idx, args[idx])
				return nil, err
			}

			out[idx] = b
		case abi.StringTy:
			out[idx] = args[idx]
		case abi.AddressTy:
			if !common.IsHexAddress(args[idx]) {
				err := errors.Errorf("argument %s (idx %d) is not a hex address: %s", input.Name, idx, args[idx])
				return nil, err
			}

			out[idx] = common.HexToAddress(args[idx])
		case abi.BytesTy:
			b, err := hexutil.Decode(args[idx])
			if err != nil {
				err := errors.Wrapf(err, "argument %s (idx %d) type bytes failed to parse: %s",
					input.Name, idx, args[idx])
				return nil, err
			}

			out[idx] = b
		case abi.FixedBytesTy:
			b, err := hexutil.Decode(args[idx])
			if err != nil || len(b) > input.Type.Size {
				err := errors.Errorf("argument %s (idx %d) type %s failed to parse: %s",
					input.Name, idx, input.Type.String(), args[idx])
				return nil, err
			}

			// bytesN packs from a [N]byte array
			arr := reflect.New(input.Type.GetType()).Elem()
			reflect.Copy(arr, reflect.ValueOf(b))
			out[idx] = arr.Interface()
		default:
			err := errors.Errorf("argument %s (idx %d) has unsupported type: %s", input.Name, idx, input.Type.String())
			return nil, err
		}
	}

	return out, nil
}
