// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package query

// Column lists for the log-schema tables. The non-LOB lists are used unless a
// caller asks for LOB data, in which case searches select every column.

// MessageLogColumns are the scalar CWMESSAGELOG columns.
const MessageLogColumns = `MSGID, VMID, INTER_TYPE, OPERATION, USER_ID,
		       USER_DATA1, USER_DATA2, USER_DATA3,
		       CREATION_TIME, SEND_TIME, RECEIVE_TIME,
		       RECEIVE_CHARSET, SEND_MSG_PRIORITY, RECEIVE_MSG_PRIORITY,
		       SEND_MSG_SEQID, RECEIVE_MSG_SEQID,
		       SEND_MSG_RETRYCOUNT, RECEIVE_MSG_RETRYCOUNT,
		       SEND_MSG_CORRELTIONID, RECEIVE_MSG_CORRELTIONID,
		       ACCOUNT_ID, ORDER_ID, PROCESS_ID, TRANSACTION_ID,
		       ACTIVITY_ID, CUSTOMER_ID, FAILURE, ATTEMPTCOUNT,
		       APP_NAME, SERVICE_PORT`

// MessageLogBlobColumns are the CWMESSAGELOG payload BLOBs.
const MessageLogBlobColumns = `SEND_DATA, RECEIVE_DATA, SEND_MSG_PROPS, RECEIVE_MSG_PROPS`

// OrderHeaderColumns are the ORDER_ORDER_HEADER columns without NCLOB/BLOB data.
const OrderHeaderColumns = `CWDOCID, CWDOCSTAMP, CWORDERCREATIONDATE, CWORDERID, CWPARENTID,
		LASTUPDATEDDATE, DUEDATE, UPDATEDBY, OMORDERID, QUOTEID, QUOTEGUID,
		ORDERTYPE, SERVICECASEID, ACTION, DPIORDERNUMBER, RESERVATIONID,
		CUSTOMERORDERTYPE, ORDERHASH, PONR, DPIENVIRONMENT, DPIOPERATIONREQUESTED,
		CONTROLNUMBER, BILLINGTELEPHONENUMBER, TELEPHONENUMBER, UNIVERSALSERVICEID,
		COMPANYID, ISHOA, ONTTYPE, ISEQUIPMENTCHANGED, ORDERSEQUENCE,
		RECORDLOCATORNUMBER, CANCELREASON, CHECKACTIVESERVICES, ONHOLD,
		INSTALLATIONTYPE, TELEPHONENUMBERNXX, TELEPHONENUMBERNPA, TELEPHONENUMBERSTATION,
		TELEPHONENUMBEREXTENSION, TRACKINGID, DATETIME, HEARTBEAT, PROVIDERID,
		PROVIDERNAME, PROVIDERTYPE, PROVIDERVERSIONID, PROVIDERVERSIONDATETIME,
		PROVIDERDESCRIPTION, PROVIDERLOCATION, PROVIDERTRANSACTIONID, TRACERESULTMESSAGE,
		TRACERESULTHOSTNAME, TRACESETTINGSTRACEENABLED, TRACESETTINGSTRACELEVEL,
		TRACESETTINGSCOMPONENT, TRACERESULTCOMPONENT, TRACERESULTDATETIME,
		CONSUMERTRACKINGID, CONSUMERAPPLICATIONID, CONSUMEREMPLOYEEID, CONSUMERUSERID,
		CONSUMERTRANSACTIONID, REQUIRESEOCPROVISIONING, TCPROVISIONINGREQUIRED,
		TRIADPROVISIONINGREQUIRED, SOAPROVISIONINGREQUIRED, SERVICEMANPROVISIONINGREQUIRED,
		HSIPROVISIONINGREQUIRED, RECORDONLYCHANGE, STAGECODE, TCPROVNOTIFICATIONSTATUS,
		TRIADPROVNOTIFICATIONSTATUS, SOAPPROVNOTIFICATIONSTATUS, SERMANPROVNOTIFICATIONSTATUS,
		HSIPROVNOTIFICATIONSTATUS, LASTSTAGECODEMODIFIEDTIMESTAMP, DUEDATEMODIFIED,
		CWCREATED, LOCKED, ISFUTUREDUEDATE, MAINPROCID, ORDERORIGIN, LEGACYPROCID,
		ISRINGCENTRAL, RINGCENTRALACCOUNTID, TERMSOFSERVICEENABLED, TRADINGNAME,
		ACCOUNTUUID, PORTINGSTATUS, PORTINGMILESTONE, ISNEWCUSTOMER, ISDATAONLY,
		ISLITONT, LOCATIONID, ONTSERIALNUMBER`

// OrderTrackingColumns are the ORDER_TRACKING_INFO columns without NCLOB data.
const OrderTrackingColumns = `CWDOCID, ORDERINFO, CWDOCSTAMP, CWORDERCREATIONDATE, CWORDERID, CWPARENTID,
		LASTUPDATEDTIMESTAMP, UPDATEDBY, WFMERRORID, PROCESSWAITINGFORWFM, SCASEID,
		ICASEID, WORKID, CASESTATUS, EXECUTIONSTATUSMESSAGE, PEGAAPIINFO, PEGAAPISTATUS,
		ESBAPIINFO, ESBAPISTATUS, CUSTOMERAPIINFO, CUSTOMERAPISTATUS, DPIAPIINFO,
		DPIAPISTATUS, PREORDERERRORSYSTEMS, ERRORSRVCVALIDATION, TRIADERRORID_IA,
		TRIADINTFSTATUS, DPIERRORID_DISP, DPIERRORID_IA, DPISBMOSTATUS,
		TRIADINVOLVEMENTORDERLEVEL, ORDERID, ORDERSTATUS, PREORDERSTATUS, FLOWSTATUS,
		DPIUMSTATUS, DPIUMERRORID_IA, TRIADERRORID_DISP, TCINTFSTATUS,
		TCINVOLVEMENTORDERLEVEL, TCERRORID_IA, TCERRORID_DISP, CUSTOMERNOTIFERRORID_IA,
		CUSTOMERNOTIFERRORID_DISP, CUSTOMERNOTIFSTATUS, EMAILUPDATES, LASTORDERLINENUMBER,
		ISDISPATCH, WORKUNITCALCULATION, PROCID, NUMBEROFITEMS, LASTTRIADOPERATION,
		CANPROCID, TRIADCANERRORID_IA, DPIORDERID, RESPONSIBLEPARTY, IGCANDIDATE,
		HASDPIEVERERRORED, DPISTANDALONEPROCID, NOTIFYCUSTOMERPROCID,
		NOTSUPPORTEDPROVSYSTEMFOUND, PURGEORDER, ISCANCELLEDBYOC, CANCELREMARK,
		TRIADRETRY, LASTUPDATEDDATE, ORDERLOCK, BICFSS, BI, NUMBEROFCFSSITEMS,
		PASSEDHELDSTAGE`

// OrderInstanceColumns are the CWORDERINSTANCE columns without NCLOB data.
const OrderInstanceColumns = `CWDOCID, METADATATYPE, STATUS, STATE, VISUALKEY, PRODUCTCODE, CREATIONDATE,
		CREATEDBY, UPDATEDBY, LASTUPDATEDDATE, PARENTORDER, OWNER, STATE2, HASATTACHMENT,
		METADATATYPE_VER, ORIGINAL_ORDER_ID, SOURCE_ORDER_ID, KIND_OF_ORDER, ORDER_PHASE,
		PROJECT_ID, PROCESS_ID, CWORDERSTAMP, CWDOCSTAMP, APP_NAME, DUEDATE, BASKETID,
		CWUSERROLE, OSTATE, CUSTOMERID, ACCOUNTID, ORDERTYPE, ORDERSUBTYPE, RELATEDORDER,
		ORDERNUM, ORDVER, EFFECTIVEDATE, SUBMITTEDBY, SUBMITTEDDATE, PRICE, ONETIMEPRICE,
		PRICEDON, CORRELATIONID, QUOTEID, CHANNEL, EXPIRATIONDATE, QUOTEEXPIRATIONDATE,
		ASSIGNEDPRIORITY, REQUESTEDSTARTDATE, REQUESTEDCOMPLETIONDATE, DESCRIPTION, BITYPE,
		EXTERNALORDERID, ISBUNDLED, MODE_SC, ISLOCKED, REQUESTER, BISPECIFICATION, QUOTEON,
		COMPLETIONDATE, EXTENDEDSTATE, ORDERROLE, ORDERIDREF, PREVOSTATE, PMPROJECTID,
		PMPROJECTTYPE`
