package sqlinline

const QListDonationsByCampaign = `--sql 4c0011cf-d52d-48a4-93dc-b0d02ddd97f6
select d.id::text, d.campaign_id, d.donor_id::text, d.donor_address, d.amount::text, d.tx_hash, d.created_at, c.title
from donations d
join campaigns c on c.id = d.campaign_id
where d.campaign_id = $1::bigint
order by d.created_at desc;
`

const QListDonationsByDonor = `--sql ee011ae4-3098-4714-ad05-f32425c28069
select d.id::text, d.campaign_id, d.donor_id::text, d.donor_address, d.amount::text, d.tx_hash, d.created_at, c.title
from donations d
join campaigns c on c.id = d.campaign_id
where d.donor_id = $1::uuid
order by d.created_at desc;
`

const QHasDonated = `--sql 918263cf-6e59-44f9-a4b0-d786d94d6251
select exists(
  select 1 from donations where campaign_id = $1::bigint and donor_id = $2::uuid
);
`

const QInsertPendingDonation = `--sql 955e2886-d66e-414b-885e-27c0be6690ba
insert into pending_donations(campaign_id, donor_id, donor_address, amount, tx_hash)
values ($1::bigint, $2::uuid, $3::text, $4::numeric, $5::text)
on conflict (tx_hash) do update
set campaign_id = excluded.campaign_id,
    donor_id = excluded.donor_id,
    donor_address = excluded.donor_address,
    amount = excluded.amount,
    status = 'pending',
    failure_reason = '',
    attempts = 0,
    created_at = now(),
    updated_at = now()
where pending_donations.status = 'failed'
returning id::text, status, created_at, updated_at;
`

const QSelectPendingDonationByTxHash = `--sql bea31f0f-279a-4cf2-8fdb-df2edf1bbe23
select id::text, campaign_id, donor_id::text, donor_address, amount::text, tx_hash, status, failure_reason, attempts, created_at, updated_at
from pending_donations
where tx_hash = $1::text;
`

const QListPendingDonations = `--sql 986613be-a09f-4ee1-9a2c-d3424102f166
select id::text, campaign_id, donor_id::text, donor_address, amount::text, tx_hash, status, failure_reason, attempts, created_at, updated_at
from pending_donations
where status = 'pending'
order by updated_at asc
limit $1::int;
`

const QMarkPendingDonationFailed = `--sql 310b6b10-8f16-44f2-b3af-d0b03e3e6a2a
update pending_donations
set status = 'failed', failure_reason = $2::text, attempts = attempts + 1, updated_at = now()
where tx_hash = $1::text and status = 'pending';
`

const QTouchPendingDonation = `--sql 1862e341-0130-43ee-8d0e-a39bc2cc233e
update pending_donations
set attempts = attempts + 1, updated_at = now()
where tx_hash = $1::text and status = 'pending';
`

// QApplyPendingDonation confirms a pending transfer, records the donation and
// increments the campaign total in one statement.
const QApplyPendingDonation = `--sql b756ef42-1113-444d-b3c4-16cc50a9a2e0
with moved as (
  update pending_donations
  set status = 'confirmed', attempts = attempts + 1, updated_at = now()
  where tx_hash = $1::text and status = 'pending'
  returning campaign_id, donor_id, donor_address, amount, tx_hash
), inserted as (
  insert into donations(campaign_id, donor_id, donor_address, amount, tx_hash)
  select campaign_id, donor_id, donor_address, amount, tx_hash from moved
  on conflict (tx_hash) do nothing
  returning id, campaign_id, amount
), bumped as (
  update campaigns c
  set amount_collected = c.amount_collected + i.amount, updated_at = now()
  from inserted i
  where c.id = i.campaign_id
  returning c.id, c.amount_collected
)
select i.id::text, b.id, b.amount_collected::text
from inserted i
join bumped b on b.id = i.campaign_id;
`
