package consensus

import (
	"encoding/hex"
	"testing"
)

const (
	genesisHeaderHex = "0100000000000000000000000000000000000000000000000000000000000000000000003ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a29ab5f49ffff001d1dac2b7c"
	genesisHashHex   = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"
	genesisCoinbase  = "01000000010000000000000000000000000000000000000000000000000000000000000000ffffffff4d04ffff001d0104455468652054696d65732030332f4a616e2f32303039204368616e63656c6c6f72206f6e206272696e6b206f66207365636f6e64206261696c6f757420666f722062616e6b73ffffffff0100f2052a01000000434104678afdb0fe5548271967f1a67130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c384df7ba0b8d578a4c702b6bf11d5fac00000000"
	genesisMerkleHex = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"

	// Mainnet P2PKH spend of d1c789a9...793f81:0.
	legacyTxHex    = "0100000001813f79011acb80925dfe69b3def355fe914bd1d96a3f5f71bf8303c6a989c7d1000000006b483045022100ed81ff192e75a3fd2304004dcadb746fa5e24c5031ccfcf21320b0277457c98f02207a986d955c6e0cb35d446a89d3f56100f4d7f67801c31967743a9c8e10615bed01210349fc4e631e3624a545de3f89f5d8684c7b8138bd94bdd531d2e213bf016b278afeffffff02a135ef01000000001976a914bc3b654dca7e56b04dca18f2566cdaf02e8d9ada88ac99c39800000000001976a9141c4bc762dd5423e332166702cb75f40df79fea1288ac19430600"
	legacyTxIDHex  = "452c629d67e41baec3ac6f04fe744b4b9617f8f859c63b3002f8684e7a4fee03"
	legacyPrevSPK  = "76a914a802fc56c704ce87c42d7c92eb75e7896bdc41ae88ac"
	legacySigHashZ = "27e0c5994dec7824e56dec6b2fcb342eb7cdb0d0957c2fce9882f715e85d81a6"

	// Two inputs: a P2WPKH spend and a P2PKH spend with an empty witness.
	segwitTxHex    = "0200000000010211111111111111111111111111111111111111111111111111111111111111110000000000fdffffff2222222222222222222222222222222222222222222222222222222222222222010000006b483045022100a73f907c0f365bcc4fbd0f89af7dba5ca2b5ed9cb7918c12fa34743276230f76022071519a3303861750678373f9096b0d3b07979b74b29bc0ba486c600e613d0e600121021b6d5a0ee72c1a077b0af91723952bdee620e585bf44ad0f0b633714bfe9b9cafdffffff021009050000000000160014862918540329bd33efce785a5deee773582d375900000000000000000d6a0b68656c6c6f20776f726c6402483045022100e6d27ad22b9d830f74feae49fa5a421f95bf132fade1846ae96d376b2932e0d3022007cde852f4bd6fc61ec1a654f1c86200e29dfe5db419e31debe8528bf13eb5670121023b71fd5cebdca48fddcbd8f17c50b6ec87aca7fe61f415f22a245699488e9b0d0000000000"
	segwitTxIDHex  = "a376c1e7633d337647de6454f3c9ff31dd0354fa22adc0371ff7f647256901a3"
	segwitWTxIDHex = "6821d22ad6a91e9675d6881de99cd181e1c8d760533cd6d7ac1bc5cbea0ea8b9"
	segwitPrevSPK0 = "001418fc7ebe6d864c1d6d5d1fa8cbd2cf485b4a96a7"
	segwitPrevAmt0 = 100000
	segwitPrevSPK1 = "76a914862918540329bd33efce785a5deee773582d375988ac"
	segwitPrevAmt1 = 250000
	segwitZ0       = "28e963a882761b72f0c35f3b6b50e8fd9e3265a1d979d143220c7fad9ea47419"
	segwitZ1       = "45ecfdbcbb5c6d6487b4373ff7f5794cf7989bd202f1192bfc8c713fc13ef7ac"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex: %v", err)
	}
	return b
}
