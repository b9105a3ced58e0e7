package cloud

// Action kinds recognized by the cloud area.
const (
	GetProviderList         = "GET_PROVIDER_LIST"
	GetProviderListResponse = "GET_PROVIDER_LIST_RESPONSE"
	ResetProviderList       = "RESET_PROVIDER_LIST"

	GetRegionList         = "GET_REGION_LIST"
	GetRegionListResponse = "GET_REGION_LIST_RESPONSE"

	GetInstanceTypeList         = "GET_INSTANCE_TYPE_LIST"
	GetInstanceTypeListResponse = "GET_INSTANCE_TYPE_LIST_RESPONSE"

	GetSupportedRegionData         = "GET_SUPPORTED_REGION_DATA"
	GetSupportedRegionDataResponse = "GET_SUPPORTED_REGION_DATA_RESPONSE"

	CreateProvider         = "CREATE_PROVIDER"
	CreateProviderResponse = "CREATE_PROVIDER_RESPONSE"
	EditProvider           = "EDIT_PROVIDER"
	EditProviderResponse   = "EDIT_PROVIDER_RESPONSE"

	BootstrapProvider         = "BOOTSTRAP_PROVIDER"
	BootstrapProviderResponse = "BOOTSTRAP_PROVIDER_RESPONSE"

	CreateOnPremProvider         = "CREATE_ONPREM_PROVIDER"
	CreateOnPremProviderResponse = "CREATE_ONPREM_PROVIDER_RESPONSE"
	CreateInstanceType           = "CREATE_INSTANCE_TYPE"
	CreateInstanceTypeResponse   = "CREATE_INSTANCE_TYPE_RESPONSE"
	CreateRegion                 = "CREATE_REGION"
	CreateRegionResponse         = "CREATE_REGION_RESPONSE"
	CreateZones                  = "CREATE_ZONES"
	CreateZonesResponse          = "CREATE_ZONES_RESPONSE"
	CreateNodeInstances          = "CREATE_NODE_INSTANCES"
	CreateNodeInstancesResponse  = "CREATE_NODE_INSTANCES_RESPONSE"
	CreateAccessKey              = "CREATE_ACCESS_KEY"
	CreateAccessKeyResponse      = "CREATE_ACCESS_KEY_RESPONSE"
	InitializeProvider           = "INITIALIZE_PROVIDER"
	InitializeProviderSuccess    = "INITIALIZE_PROVIDER_SUCCESS"
	InitializeProviderFailure    = "INITIALIZE_PROVIDER_FAILURE"
	DeleteProvider               = "DELETE_PROVIDER"
	DeleteProviderSuccess        = "DELETE_PROVIDER_SUCCESS"
	DeleteProviderFailure        = "DELETE_PROVIDER_FAILURE"
	DeleteProviderResponse       = "DELETE_PROVIDER_RESPONSE"
	ResetProviderBootstrap       = "RESET_PROVIDER_BOOTSTRAP"

	ListAccessKeys         = "LIST_ACCESS_KEYS"
	ListAccessKeysResponse = "LIST_ACCESS_KEYS_RESPONSE"

	GetEBSTypeList         = "GET_EBS_TYPE_LIST"
	GetEBSTypeListResponse = "GET_EBS_TYPE_LIST_RESPONSE"
	GetGCPTypeList         = "GET_GCP_TYPE_LIST"
	GetGCPTypeListResponse = "GET_GCP_TYPE_LIST_RESPONSE"

	CreateDockerProvider         = "CREATE_DOCKER_PROVIDER"
	CreateDockerProviderResponse = "CREATE_DOCKER_PROVIDER_RESPONSE"

	FetchCloudMetadata    = "FETCH_CLOUD_METADATA"
	SetOnPremConfigData   = "SET_ON_PREM_CONFIG_DATA"
	ResetOnPremConfigData = "RESET_ON_PREM_CONFIG_DATA"

	GetNodeInstanceList         = "GET_NODE_INSTANCE_LIST"
	GetNodeInstanceListResponse = "GET_NODE_INSTANCE_LIST_RESPONSE"

	FetchAuthConfig                = "FETCH_AUTH_CONFIG"
	FetchAuthConfigResponse        = "FETCH_AUTH_CONFIG_RESPONSE"
	DeleteKMSConfiguration         = "DELETE_KMS_CONFIGURATION"
	DeleteKMSConfigurationResponse = "DELETE_KMS_CONFIGURATION_RESPONSE"
)
