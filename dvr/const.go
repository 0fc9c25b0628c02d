package dvr

import "fmt"

// SDK error codes, as returned by NET_DVR_GetLastError.
const (
	EC_NoError               = 0
	EC_PasswordError         = 1
	EC_NoEnoughPri           = 2
	EC_NoInit                = 3
	EC_ChannelError          = 4
	EC_OverMaxLink           = 5
	EC_VersionNoMatch        = 6
	EC_NetworkFailConnect    = 7
	EC_NetworkSendError      = 8
	EC_NetworkRecvError      = 9
	EC_NetworkRecvTimeout    = 10
	EC_NetworkErrorData      = 11
	EC_OrderError            = 12
	EC_OperNoPermit          = 13
	EC_CommandTimeout        = 14
	EC_ErrorSerialPort       = 15
	EC_ErrorAlarmPort        = 16
	EC_ParameterError        = 17
	EC_ChanException         = 18
	EC_NoDisk                = 19
	EC_ErrorDiskNum          = 20
	EC_DiskFull              = 21
	EC_DiskError             = 22
	EC_NoSupport             = 23
	EC_Busy                  = 24
	EC_ModifyFail            = 25
	EC_PasswordFormatError   = 26
	EC_DiskFormating         = 27
	EC_DVRNoResource         = 28
	EC_DVROprateFailed       = 29
	EC_OpenHostSoundFail     = 30
	EC_DVRVoiceOpened        = 31
	EC_TimeInputError        = 32
	EC_NoSpecFile            = 33
	EC_CreateFileError       = 34
	EC_FileOpenFail          = 35
	EC_OperNotFinish         = 36
	EC_GetPlayTimeFail       = 37
	EC_PlayFail              = 38
	EC_FileFormatError       = 39
	EC_DirError              = 40
	EC_AllocResourceError    = 41
	EC_AudioModeError        = 42
	EC_NoEnoughBuf           = 43
	EC_CreateSocketError     = 44
	EC_SetSocketError        = 45
	EC_MaxNum                = 46
	EC_UserNotExist          = 47
	EC_UserLocked            = 153
)

var EC_names = map[uint32]string{
	0:   "NET_DVR_NOERROR",
	1:   "NET_DVR_PASSWORD_ERROR",
	2:   "NET_DVR_NOENOUGHPRI",
	3:   "NET_DVR_NOINIT",
	4:   "NET_DVR_CHANNEL_ERROR",
	5:   "NET_DVR_OVER_MAXLINK",
	6:   "NET_DVR_VERSIONNOMATCH",
	7:   "NET_DVR_NETWORK_FAIL_CONNECT",
	8:   "NET_DVR_NETWORK_SEND_ERROR",
	9:   "NET_DVR_NETWORK_RECV_ERROR",
	10:  "NET_DVR_NETWORK_RECV_TIMEOUT",
	11:  "NET_DVR_NETWORK_ERRORDATA",
	12:  "NET_DVR_ORDER_ERROR",
	13:  "NET_DVR_OPERNOPERMIT",
	14:  "NET_DVR_COMMANDTIMEOUT",
	15:  "NET_DVR_ERRORSERIALPORT",
	16:  "NET_DVR_ERRORALARMPORT",
	17:  "NET_DVR_PARAMETER_ERROR",
	18:  "NET_DVR_CHAN_EXCEPTION",
	19:  "NET_DVR_NODISK",
	20:  "NET_DVR_ERRORDISKNUM",
	21:  "NET_DVR_DISK_FULL",
	22:  "NET_DVR_DISK_ERROR",
	23:  "NET_DVR_NOSUPPORT",
	24:  "NET_DVR_BUSY",
	25:  "NET_DVR_MODIFY_FAIL",
	26:  "NET_DVR_PASSWORD_FORMAT_ERROR",
	27:  "NET_DVR_DISK_FORMATING",
	28:  "NET_DVR_DVRNORESOURCE",
	29:  "NET_DVR_DVROPRATEFAILED",
	30:  "NET_DVR_OPENHOSTSOUND_FAIL",
	31:  "NET_DVR_DVRVOICEOPENED",
	32:  "NET_DVR_TIMEINPUTERROR",
	33:  "NET_DVR_NOSPECFILE",
	34:  "NET_DVR_CREATEFILE_ERROR",
	35:  "NET_DVR_FILEOPENFAIL",
	36:  "NET_DVR_OPERNOTFINISH",
	37:  "NET_DVR_GETPLAYTIMEFAIL",
	38:  "NET_DVR_PLAYFAIL",
	39:  "NET_DVR_FILEFORMAT_ERROR",
	40:  "NET_DVR_DIR_ERROR",
	41:  "NET_DVR_ALLOC_RESOURCE_ERROR",
	42:  "NET_DVR_AUDIO_MODE_ERROR",
	43:  "NET_DVR_NOENOUGH_BUF",
	44:  "NET_DVR_CREATESOCKET_ERROR",
	45:  "NET_DVR_SETSOCKET_ERROR",
	46:  "NET_DVR_MAX_NUM",
	47:  "NET_DVR_USERNOTEXIST",
	153: "NET_DVR_USER_LOCKED",
}

// CodeName renders an SDK error code, using its symbolic name when
// known.
func CodeName(code uint32) string {
	if n, ok := EC_names[code]; ok {
		return fmt.Sprintf("%s (%d)", n, code)
	}
	return fmt.Sprintf("error code %d", code)
}

// Stream source types in NET_DVR_STREAM_MODE.byGetStreamType.
const (
	ST_Direct       = 0 // NET_DVR_IPCHANINFO
	ST_StreamServer = 1
	ST_IPServer     = 2
	ST_DDNS         = 3
	ST_URL          = 4
	ST_HKDDNS       = 5
	ST_IPChanV40    = 6
)

// Fixed array sizes of NET_DVR_IPPARACFG_V40.
const (
	MaxChanNumV30  = 64
	MaxIPDeviceV40 = 64

	streamUnionSize = 492
)
